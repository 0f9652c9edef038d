package testutil

import (
	"math"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float32 in a loop).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// UniformVectors generates num vectors of the given dimension in [0, 1).
func (r *RNG) UniformVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([][]float32, num)
	for i := range out {
		v := make([]float32, dimensions)
		for j := range v {
			v[j] = r.rand.Float32()
		}
		out[i] = v
	}
	return out
}

// Raw converts v into the []any of float64 a JSON decoder produces.
func Raw(v []float32) []any {
	out := make([]any, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

var nonFinite = []float64{math.NaN(), math.Inf(1), math.Inf(-1)}

// WithNonFinite returns a copy of raw with one random component replaced by
// NaN or an infinity, and the position it used.
func (r *RNG) WithNonFinite(raw []any) ([]any, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]any, len(raw))
	copy(out, raw)
	pos := r.rand.Intn(len(out))
	out[pos] = nonFinite[r.rand.Intn(len(nonFinite))]
	return out, pos
}
