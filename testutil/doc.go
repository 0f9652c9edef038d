// Package testutil provides testing utilities for vecfield.
//
// This package is intended for use in tests only. It generates seeded
// vectors and the decoded-JSON shapes documents carry them in.
//
//	rng := testutil.NewRNG(seed)
//	vec := make([]float32, 128)
//	rng.FillUniform(vec)            // uniform [0, 1)
//	raw := testutil.Raw(vec)        // []any of float64, as decoded from JSON
//	bad := rng.WithNonFinite(raw)   // one component replaced by NaN or ±Inf
package testutil
