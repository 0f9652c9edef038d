// Package engine describes the capabilities of the native engines a vector
// field can be configured with.
//
// A Table is an explicit, read-only value handed to the mapping resolver. It
// answers three questions for an engine: how large a dimension it accepts,
// which space types it supports and which methods (with their parameters) it
// offers.
//
//	table := engine.DefaultTable()
//	max := table.MaxDimension(engine.Lucene) // 1024
//
// Tests build their own tables with NewTable to get deterministic bounds.
package engine
