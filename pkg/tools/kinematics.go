package tools

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SuvatTool solves constant-acceleration motion from three known quantities.
type SuvatTool struct{}

func NewSuvatTool() *SuvatTool {
	return &SuvatTool{}
}

func (t *SuvatTool) Name() string {
	return "suvat"
}

func (t *SuvatTool) Describe() string {
	return "/suvat u=0 a=2 t=10 — solve kinematics (give at least 3 of s, u, v, a, t)"
}

var suvatQuantities = []struct {
	name string
	unit string
}{
	{"u", "m/s"},
	{"v", "m/s"},
	{"a", "m/s^2"},
	{"t", "s"},
	{"s", "m"},
}

func (t *SuvatTool) Run(args string) (string, error) {
	known, err := parseSuvatArgs(args)
	if err != nil {
		return "", NewError(KindInvalidArguments, t.Name(), err)
	}
	if len(known) < 3 {
		return "", NewError(KindInvalidArguments, t.Name(),
			fmt.Errorf("need at least 3 of s, u, v, a, t"))
	}

	solved := SolveSUVAT(known)

	var b strings.Builder
	b.WriteString("🏎️ Kinematics (SUVAT):")
	for _, q := range suvatQuantities {
		if val, ok := solved[q.name]; ok {
			fmt.Fprintf(&b, "\n%s = %s %s", q.name, FormatNumber(val), q.unit)
		}
	}
	return b.String(), nil
}

// parseSuvatArgs reads space-separated key=value pairs for s, u, v, a, t.
func parseSuvatArgs(args string) (map[string]float64, error) {
	known := make(map[string]float64)
	for _, field := range strings.Fields(args) {
		key, raw, found := strings.Cut(field, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if !found || raw == "" {
			return nil, fmt.Errorf("expected key=value, got %q", field)
		}
		switch key {
		case "s", "u", "v", "a", "t":
		default:
			return nil, fmt.Errorf("unknown quantity %q (use s, u, v, a, t)", key)
		}
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q for %s", raw, key)
		}
		known[key] = val
	}
	return known, nil
}

// SolveSUVAT fills in the unknown quantities from the known ones using the
// three constant-acceleration equations: v = u + at, s = ut + at²/2 and
// v² = u² + 2as. Quantities that stay underdetermined are left out.
func SolveSUVAT(known map[string]float64) map[string]float64 {
	out := make(map[string]float64, 5)
	for k, v := range known {
		out[k] = v
	}

	has := func(k string) bool { _, ok := out[k]; return ok }
	val := func(k string) float64 { return out[k] }

	// each pass can unlock inputs for the next equation family
	for pass := 0; pass < 3; pass++ {
		// v = u + a t
		if !has("v") && has("u") && has("a") && has("t") {
			out["v"] = val("u") + val("a")*val("t")
		}
		if !has("u") && has("v") && has("a") && has("t") {
			out["u"] = val("v") - val("a")*val("t")
		}
		if !has("a") && has("v") && has("u") && has("t") && val("t") != 0 {
			out["a"] = (val("v") - val("u")) / val("t")
		}
		if !has("t") && has("v") && has("u") && has("a") && val("a") != 0 {
			out["t"] = (val("v") - val("u")) / val("a")
		}

		// s = u t + a t² / 2
		if !has("s") && has("u") && has("t") && has("a") {
			out["s"] = val("u")*val("t") + 0.5*val("a")*val("t")*val("t")
		}
		if !has("u") && has("s") && has("t") && has("a") && val("t") != 0 {
			out["u"] = (val("s") - 0.5*val("a")*val("t")*val("t")) / val("t")
		}
		if !has("a") && has("s") && has("u") && has("t") && val("t") != 0 {
			out["a"] = 2 * (val("s") - val("u")*val("t")) / (val("t") * val("t"))
		}
		if !has("t") && has("s") && has("u") && has("a") {
			if val("a") == 0 {
				if val("u") != 0 {
					out["t"] = val("s") / val("u")
				}
			} else if root, ok := nonNegativeRoot(0.5*val("a"), val("u"), -val("s")); ok {
				out["t"] = root
			}
		}

		// v² = u² + 2 a s
		if !has("v") && has("u") && has("a") && has("s") {
			if sq := val("u")*val("u") + 2*val("a")*val("s"); sq >= 0 {
				out["v"] = math.Sqrt(sq)
			}
		}
		if !has("u") && has("v") && has("a") && has("s") {
			if sq := val("v")*val("v") - 2*val("a")*val("s"); sq >= 0 {
				out["u"] = math.Sqrt(sq)
			}
		}
		if !has("a") && has("v") && has("u") && has("s") && val("s") != 0 {
			out["a"] = (val("v")*val("v") - val("u")*val("u")) / (2 * val("s"))
		}
		if !has("s") && has("v") && has("u") && has("a") && val("a") != 0 {
			out["s"] = (val("v")*val("v") - val("u")*val("u")) / (2 * val("a"))
		}
	}

	return out
}

// nonNegativeRoot solves ax²+bx+c=0, preferring the nonnegative root.
func nonNegativeRoot(a, b, c float64) (float64, bool) {
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}
	r1 := (-b + math.Sqrt(disc)) / (2 * a)
	r2 := (-b - math.Sqrt(disc)) / (2 * a)
	if r1 >= 0 {
		return r1, true
	}
	return r2, true
}
