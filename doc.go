// Package vecfield resolves vector field mappings and parses per-document
// vector values.
//
// A mapping node such as
//
//	{"type": "vector", "dimension": 3, "method": {"engine": "lucene", "space_type": "l2"}}
//
// is compiled once into a *mapping.Field. Compilation validates every
// parameter and dispatches the field to one of three variants: engine-native
// (a method was given), model reference (a model_id was given) or legacy (only
// a dimension; graph parameters come from index settings).
//
// # Quick Start
//
//	m := vecfield.New(vecfield.WithSink(vectorstore.New()))
//	field, err := m.Compile("embedding", node)
//	if err != nil {
//	    // *mapping.ConfigError
//	}
//	outcome, err := m.Index(ctx, field, vecfield.Document{ID: 1, Value: []any{0.1, 0.2, 0.3}})
//
// # Ingestion
//
// Before a value is parsed the runtime guards are consulted: a feature gate
// (knn.plugin.enabled) and a circuit breaker. A rejection is a *guard.Error,
// never a value error, and is never skipped by ignore_malformed. Fields that
// reference a model resolve their dimension from the model registry at this
// point.
//
// Use Classify to tell configuration, value, guard and model failures apart.
package vecfield
