package tools

import (
	"regexp"
	"strings"
)

// Free-form patterns that map to tools without involving the model.
// Order matters: the first match wins.
var (
	arithmeticRe = regexp.MustCompile(`^[0-9\s.+\-*/%^()]+$`)
	hasOperator  = regexp.MustCompile(`\d\s*[+\-*/%^]`)

	convertRe = regexp.MustCompile(`(?i)^\s*convert\s+(-?\d+(?:\.\d+)?)\s*(\S+)\s+(?:to|into)\s+(\S+?)\s*\??\s*$`)

	statsRe  = regexp.MustCompile(`(?i)^\s*(?:what\s+is\s+the\s+)?(?:mean|average|avg|stats)\s+(?:of\s+)?([-\d.,;\s]+?)\s*\??\s*$`)
	numberRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

	plotRe = regexp.MustCompile(`(?i)^\s*plot\s+(.+?)\s*$`)
)

// Autodetect maps recognizable free-form input to a tool call.
// It is deliberately conservative: anything ambiguous falls through
// to the model.
func Autodetect(input string) (name string, args string, ok bool) {
	text := strings.TrimSpace(input)
	if text == "" || strings.HasPrefix(text, "/") {
		return "", "", false
	}

	// bare arithmetic, e.g. "2*(3+4)^2"
	if arithmeticRe.MatchString(text) && hasOperator.MatchString(text) {
		return "calc", text, true
	}

	// "convert 60 km/h to m/s"
	if m := convertRe.FindStringSubmatch(text); m != nil {
		return "u", m[1] + " " + m[2] + " -> " + m[3], true
	}

	// "mean of 2 4 6 8"
	if m := statsRe.FindStringSubmatch(text); m != nil {
		if nums := numberRe.FindAllString(m[1], -1); len(nums) >= 2 {
			return "stats", strings.Join(nums, " "), true
		}
	}

	// "plot y=sin(x) x:-3.14:3.14"
	if m := plotRe.FindStringSubmatch(text); m != nil {
		if strings.Contains(strings.ToLower(m[1]), "y=") {
			return "plot", m[1], true
		}
	}

	return "", "", false
}
