package conv

import (
	"fmt"
	"math"
)

// Int64ToInt32 converts int64 to int32 safely.
func Int64ToInt32(v int64) (int32, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int32", v)
	}
	return int32(v), nil
}

// Uint64ToInt32 converts uint64 to int32 safely.
func Uint64ToInt32(v uint64) (int32, error) {
	if v > math.MaxInt32 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int32 (too large)", v)
	}
	return int32(v), nil
}

// Float64ToInt32 truncates v toward zero and converts it to int32 safely.
func Float64ToInt32(v float64) (int32, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("cannot convert %v to int32", v)
	}
	t := math.Trunc(v)
	if t < math.MinInt32 || t > math.MaxInt32 {
		return 0, fmt.Errorf("integer overflow: %v cannot be converted to int32", v)
	}
	return int32(t), nil
}
