package form

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CoerceCount turns loosely typed count input into a non-negative integer.
// Anything that does not read as a number becomes 0.
func CoerceCount(v any) int {
	var n float64
	switch val := v.(type) {
	case int:
		n = float64(val)
	case int64:
		n = float64(val)
	case float64:
		n = val
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0
		}
		n = f
	case string:
		s := strings.TrimSpace(val)
		if i, err := strconv.Atoi(s); err == nil {
			n = float64(i)
		} else if f, err := strconv.ParseFloat(s, 64); err == nil {
			n = f
		} else {
			return 0
		}
	default:
		return 0
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// CoerceValue converts value for the field key where the field accepts
// loosely typed input. Other values are returned unchanged.
func CoerceValue(key string, value any) any {
	info, ok := Lookup(key)
	if !ok {
		return value
	}
	if info.Kind == KindInt {
		return CoerceCount(value)
	}
	return value
}
