// Package method implements the method descriptor of a vector field: the
// inline bundle of engine, algorithm name, space type and algorithm
// parameters.
//
// Parse checks the shape of a raw descriptor and fills in defaults.
// Validate checks it against an engine capability table and reports every
// problem it finds in one *ValidationError rather than stopping at the first.
package method
