package vector

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is an immutable vector of finite float32 components.
type Value struct {
	data []float32
}

// Len returns the number of components.
func (v Value) Len() int { return len(v.data) }

// At returns component i.
func (v Value) At(i int) float32 { return v.data[i] }

// Float32s returns a copy of the components.
func (v Value) Float32s() []float32 {
	out := make([]float32, len(v.data))
	copy(out, v.data)
	return out
}

// Bytes encodes v as little-endian float32s.
func (v Value) Bytes() []byte {
	b := make([]byte, 4*len(v.data))
	for i, f := range v.data {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}

// FromBytes decodes a value produced by Bytes.
func FromBytes(b []byte) (Value, error) {
	if len(b)%4 != 0 {
		return Value{}, fmt.Errorf("vector: encoded length %d is not a multiple of 4", len(b))
	}
	data := make([]float32, len(b)/4)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return Value{data: data}, nil
}

func (v Value) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, f := range v.data {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
