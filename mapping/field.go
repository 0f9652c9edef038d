package mapping

// Field is a compiled vector field.
type Field struct {
	cfg     Config
	variant Variant
}

// Compile resolves node and dispatches the result.
func Compile(name string, node map[string]any, ctx Context) (*Field, error) {
	cfg, err := Resolve(name, node, ctx)
	if err != nil {
		return nil, err
	}
	return bind(cfg, ctx), nil
}

// bind dispatches cfg and records the legacy values on the field so later
// settings changes do not affect it.
func bind(cfg Config, ctx Context) *Field {
	v := Dispatch(cfg, ctx)
	if l, ok := v.(Legacy); ok {
		cfg.Legacy = LegacyParams(l)
	}
	return &Field{cfg: cfg, variant: v}
}

// Merge builds a new field from f and overrides. Only meta and
// ignore_malformed may change.
func (f *Field) Merge(overrides map[string]any, ctx Context) (*Field, error) {
	prev := f.cfg.clone()
	cfg, err := resolve(f.cfg.Name, overrides, &prev, ctx)
	if err != nil {
		return nil, err
	}
	return bind(cfg, ctx), nil
}

// Name returns the field name.
func (f *Field) Name() string { return f.cfg.Name }

// Config returns a copy of the field configuration.
func (f *Field) Config() Config { return f.cfg.clone() }

// Variant returns the dispatched variant.
func (f *Field) Variant() Variant { return f.variant }

// TypeName returns "vector".
func (f *Field) TypeName() string { return TypeName }

// Dimension returns the vector dimension, or Unresolved for model
// references.
func (f *Field) Dimension() int {
	if _, ok := f.variant.(ModelReference); ok {
		return Unresolved
	}
	return f.cfg.Dimension
}

// Stored reports whether raw vectors are kept as stored fields.
func (f *Field) Stored() bool { return f.cfg.Stored }

// DocValues reports whether doc values are enabled.
func (f *Field) DocValues() bool { return f.cfg.DocValues }

// IgnoreMalformed reports whether malformed values are skipped.
func (f *Field) IgnoreMalformed() bool { return f.cfg.IgnoreMalformed.Value }

// ExistsQuery returns a query matching documents with a value.
func (f *Field) ExistsQuery() Query { return ExistsQuery{FieldName: f.cfg.Name} }

// TermQuery always fails; vector fields cannot be queried by value.
func (f *Field) TermQuery(any) (Query, error) {
	return nil, &UsageError{Field: f.cfg.Name, Op: "term query", Kind: ErrTermQueryUnsupported}
}

// ValueFetcher always fails; vector values are not retrievable as fields.
func (f *Field) ValueFetcher() error {
	return &UsageError{Field: f.cfg.Name, Op: "fetch", Kind: ErrFieldRetrievalUnsupported}
}

// FieldData returns doc values access, or an error when doc values are off.
func (f *Field) FieldData() (FieldData, error) {
	if !f.cfg.DocValues {
		return FieldData{}, &UsageError{Field: f.cfg.Name, Op: "field data", Kind: ErrDocValuesDisabled}
	}
	return FieldData{FieldName: f.cfg.Name, Dimension: f.Dimension()}, nil
}

// Export returns the mapping node of f. Defaults are omitted unless
// includeDefaults is set; ignore_malformed is only echoed when it was set
// explicitly.
func (f *Field) Export(includeDefaults bool) map[string]any {
	out := map[string]any{KeyType: TypeName}
	for _, p := range parameters {
		if v, ok := p.export(&f.cfg, includeDefaults); ok {
			out[p.key] = v
		}
	}
	return out
}
