package story

import (
	"math"
	"strconv"
	"strings"
)

// ToNumber coerces a stored variable value to a float the way the authoring
// runtime's Number() does: empty or whitespace-only strings become 0,
// anything unparsable becomes NaN.
func ToNumber(value string) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// FormatNumber renders a float back to the stored string form, trimming
// trailing zeros. Non-finite results keep their Number() spellings so a
// divide-by-zero effect round-trips instead of faulting.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Truthy reports whether a snapshot's value counts as true for a bare
// conditional test: boolean "true", a non-zero number, or any non-empty
// string.
func Truthy(snapshot VariableSnapshot) bool {
	switch snapshot.Type {
	case VariableBoolean:
		return strings.EqualFold(snapshot.Value, "true")
	case VariableNumber:
		n := ToNumber(snapshot.Value)
		return n != 0 && !math.IsNaN(n)
	default:
		return snapshot.Value != ""
	}
}
