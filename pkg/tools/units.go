package tools

import (
	"fmt"
	"strconv"
	"strings"
)

// UnitTool converts between physical units.
type UnitTool struct{}

func NewUnitTool() *UnitTool {
	return &UnitTool{}
}

func (t *UnitTool) Name() string {
	return "u"
}

func (t *UnitTool) Describe() string {
	return "/u <value> <unit> -> <unit> — convert units, e.g. /u 60 km/h -> m/s"
}

// unitDef maps a unit to its dimension and scale factor to the SI base.
type unitDef struct {
	dim    string
	factor float64
}

var unitTable = map[string]unitDef{
	// length (base: m)
	"m":  {"length", 1},
	"km": {"length", 1000},
	"cm": {"length", 0.01},
	"mm": {"length", 0.001},
	"mi": {"length", 1609.344},
	"yd": {"length", 0.9144},
	"ft": {"length", 0.3048},
	"in": {"length", 0.0254},

	// mass (base: kg)
	"kg": {"mass", 1},
	"g":  {"mass", 0.001},
	"mg": {"mass", 1e-6},
	"t":  {"mass", 1000},
	"lb": {"mass", 0.45359237},
	"oz": {"mass", 0.028349523125},

	// time (base: s)
	"s":   {"time", 1},
	"min": {"time", 60},
	"h":   {"time", 3600},
	"d":   {"time", 86400},

	// speed (base: m/s)
	"m/s":  {"speed", 1},
	"km/h": {"speed", 1000.0 / 3600.0},
	"km/s": {"speed", 1000},
	"mph":  {"speed", 1609.344 / 3600.0},
	"ft/s": {"speed", 0.3048},

	// pressure (base: Pa)
	"pa":   {"pressure", 1},
	"kpa":  {"pressure", 1000},
	"bar":  {"pressure", 100000},
	"atm":  {"pressure", 101325},
	"mmhg": {"pressure", 133.322},

	// energy (base: J)
	"j":    {"energy", 1},
	"kj":   {"energy", 1000},
	"cal":  {"energy", 4.184},
	"kcal": {"energy", 4184},
	"wh":   {"energy", 3600},
	"kwh":  {"energy", 3.6e6},
}

// temperature is affine, handled apart from the factor table.
var tempUnits = map[string]bool{"c": true, "f": true, "k": true,
	"°c": true, "°f": true, "celsius": true, "fahrenheit": true, "kelvin": true}

func (t *UnitTool) Run(args string) (string, error) {
	value, from, to, err := parseConversion(args)
	if err != nil {
		return "", NewError(KindInvalidArguments, t.Name(), err)
	}

	result, err := Convert(value, from, to)
	if err != nil {
		return "", NewError(KindComputationFailed, t.Name(), err)
	}
	return fmt.Sprintf("%s %s = %s %s", FormatNumber(value), from, FormatNumber(result), to), nil
}

// parseConversion understands "60 km/h -> m/s" and "60 km/h to m/s".
func parseConversion(args string) (value float64, from, to string, err error) {
	text := strings.TrimSpace(args)

	var left, right string
	if i := strings.Index(text, "->"); i >= 0 {
		left, right = text[:i], text[i+2:]
	} else if i := strings.Index(strings.ToLower(text), " to "); i >= 0 {
		left, right = text[:i], text[i+4:]
	} else {
		return 0, "", "", fmt.Errorf("expected '<value> <unit> -> <unit>'")
	}

	to = strings.TrimSpace(right)
	fields := strings.Fields(strings.TrimSpace(left))
	if len(fields) < 2 || to == "" {
		return 0, "", "", fmt.Errorf("expected '<value> <unit> -> <unit>'")
	}

	value, err = strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, "", "", fmt.Errorf("invalid value %q", fields[0])
	}
	from = strings.Join(fields[1:], " ")
	return value, from, to, nil
}

// Convert converts value between two units of the same dimension.
func Convert(value float64, from, to string) (float64, error) {
	fromKey := normalizeUnit(from)
	toKey := normalizeUnit(to)

	if tempUnits[fromKey] && tempUnits[toKey] {
		return convertTemperature(value, fromKey, toKey)
	}

	fu, ok := unitTable[fromKey]
	if !ok {
		return 0, fmt.Errorf("unknown unit %q", from)
	}
	tu, ok := unitTable[toKey]
	if !ok {
		return 0, fmt.Errorf("unknown unit %q", to)
	}
	if fu.dim != tu.dim {
		return 0, fmt.Errorf("cannot convert %s to %s", fu.dim, tu.dim)
	}

	return value * fu.factor / tu.factor, nil
}

func normalizeUnit(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	// case matters only for display, not lookup
	switch u {
	case "hr", "hrs", "hour", "hours":
		return "h"
	case "sec", "secs", "second", "seconds":
		return "s"
	case "kmh", "kph":
		return "km/h"
	}
	return u
}

func convertTemperature(value float64, from, to string) (float64, error) {
	// through Celsius
	var c float64
	switch canonicalTemp(from) {
	case "c":
		c = value
	case "f":
		c = (value - 32) * 5 / 9
	case "k":
		c = value - 273.15
	}

	switch canonicalTemp(to) {
	case "c":
		return c, nil
	case "f":
		return c*9/5 + 32, nil
	case "k":
		return c + 273.15, nil
	}
	return 0, fmt.Errorf("unknown temperature unit")
}

func canonicalTemp(u string) string {
	switch u {
	case "c", "°c", "celsius":
		return "c"
	case "f", "°f", "fahrenheit":
		return "f"
	case "k", "kelvin":
		return "k"
	}
	return ""
}
