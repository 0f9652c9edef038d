package vector

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Parse converts raw into a Value of length dim.
//
// raw may be a sequence of numbers, a single number or nil. nil returns
// ok == false and no error; the caller emits nothing for the document. Any
// other shape reads as an empty sequence. The whole input is consumed before
// the length is compared with dim.
func Parse(raw any, dim int) (v Value, ok bool, err error) {
	var data []float32

	switch t := raw.(type) {
	case nil:
		return Value{}, false, nil
	case []any:
		data = make([]float32, 0, len(t))
		for i, c := range t {
			f, err := component(c, i)
			if err != nil {
				return Value{}, false, err
			}
			data = append(data, f)
		}
	case []float32:
		data = make([]float32, len(t))
		for i, f := range t {
			if err := checkFinite(float64(f), i); err != nil {
				return Value{}, false, err
			}
			data[i] = f
		}
	case []float64:
		data, err = fromFloat64s(t)
	case []int:
		data = fromInts(t)
	case []int32:
		data = fromInts(t)
	case []int64:
		data = fromInts(t)
	case []json.Number:
		data = make([]float32, 0, len(t))
		for i, c := range t {
			f, err := component(c, i)
			if err != nil {
				return Value{}, false, err
			}
			data = append(data, f)
		}
	default:
		if f, isNum := scalar(raw); isNum {
			if err := checkFinite(f, 0); err != nil {
				return Value{}, false, err
			}
			data = []float32{float32(f)}
		}
	}
	if err != nil {
		return Value{}, false, err
	}

	if len(data) != dim {
		return Value{}, false, &ValueError{Kind: ErrDimensionMismatch, Expected: dim, Got: len(data)}
	}
	return Value{data: data}, true, nil
}

func component(c any, i int) (float32, error) {
	f, ok := scalar(c)
	if !ok {
		s, isString := c.(string)
		if !isString {
			return 0, &ValueError{Kind: ErrInvalidComponent, Index: i}
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, &ValueError{Kind: ErrInvalidComponent, Index: i}
		}
		f = parsed
	}
	if err := checkFinite(f, i); err != nil {
		return 0, err
	}
	return float32(f), nil
}

func scalar(c any) (float64, bool) {
	switch n := c.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := strconv.ParseFloat(string(n), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// checkFinite rejects values that are not finite once rounded to float32,
// which includes float64 values that overflow the float32 range.
func checkFinite(f float64, i int) error {
	g := float64(float32(f))
	if math.IsNaN(g) || math.IsInf(g, 0) {
		return &ValueError{Kind: ErrNonFiniteComponent, Index: i}
	}
	return nil
}

func fromFloat64s(in []float64) ([]float32, error) {
	out := make([]float32, len(in))
	for i, f := range in {
		if err := checkFinite(f, i); err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

func fromInts[T int | int32 | int64](in []T) []float32 {
	out := make([]float32, len(in))
	for i, n := range in {
		out[i] = float32(n)
	}
	return out
}

// New returns a Value holding a copy of data. Components are checked for
// finiteness.
func New(data []float32) (Value, error) {
	v, _, err := Parse(data, len(data))
	return v, err
}
