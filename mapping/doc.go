// Package mapping resolves vector field definitions.
//
// A raw mapping node is resolved into an immutable Config by a declarative
// parameter list, then dispatched to exactly one Variant:
//
//	EngineNative   inline method (side channel or the engine's native codec)
//	ModelReference deferred, dimension resolved at ingestion from a model registry
//	Legacy         index-wide settings backfill
//
// Compile does both steps and returns a *Field. Field.Merge rebuilds a field
// from its previous configuration plus overrides; the old field is never
// modified.
package mapping
