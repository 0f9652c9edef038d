// Package vector parses per-document vector input into fixed-length float32
// values.
package vector
