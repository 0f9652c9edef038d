// Package conv provides checked numeric conversions.
//
// Mapping parameters arrive as untyped JSON/YAML values. These helpers keep
// the coercion of such values into fixed-width integers explicit about
// overflow instead of silently wrapping.
package conv
