package schema

import "math"

// Loose-decoding helpers for legacy documents, which may carry numbers
// as floats, counters as strings of digits, or junk in any field.

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
