package vecfield

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vecfield/mapping"
	"github.com/hupe1980/vecfield/model"
	"github.com/hupe1980/vecfield/vector"
)

// Sink receives parsed vectors. vectorstore.Store implements it.
type Sink interface {
	Add(ctx context.Context, field *mapping.Field, id uint32, v vector.Value) error
}

// Document is one document's raw input for a single field.
type Document struct {
	ID    uint32
	Value any
}

// Outcome describes what Index did with a document.
type Outcome int

// Index outcomes.
const (
	// OutcomeFailed means the document returned an error.
	OutcomeFailed Outcome = iota
	// OutcomeIndexed means a vector was handed to the sink.
	OutcomeIndexed
	// OutcomeSkipped means the value was null and nothing was emitted.
	OutcomeSkipped
	// OutcomeIgnored means a malformed value was dropped by ignore_malformed.
	OutcomeIgnored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIndexed:
		return "indexed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeIgnored:
		return "ignored"
	default:
		return "failed"
	}
}

// Result is the per-document result of IndexBatch.
type Result struct {
	ID      uint32
	Outcome Outcome
	Err     error
}

// Mapper compiles vector fields and ingests their values.
// It is safe for concurrent use.
type Mapper struct {
	opts options
}

// New creates a Mapper.
func New(optFns ...Option) *Mapper {
	return &Mapper{opts: applyOptions(optFns)}
}

func (m *Mapper) mappingContext() mapping.Context {
	return mapping.Context{Engines: m.opts.engines, Settings: m.opts.settings}
}

// Compile resolves and dispatches a field definition.
// Errors are *mapping.ConfigError.
func (m *Mapper) Compile(name string, node map[string]any) (*mapping.Field, error) {
	start := time.Now()
	f, err := mapping.Compile(name, node, m.mappingContext())
	m.recordCompile(name, f, time.Since(start), err)
	return f, err
}

// Merge applies overrides to an existing field, returning a new field.
// old is never modified.
func (m *Mapper) Merge(old *mapping.Field, overrides map[string]any) (*mapping.Field, error) {
	start := time.Now()
	f, err := old.Merge(overrides, m.mappingContext())
	m.recordCompile(old.Name(), f, time.Since(start), err)
	return f, err
}

func (m *Mapper) recordCompile(name string, f *mapping.Field, d time.Duration, err error) {
	var kind mapping.VariantKind
	if f != nil {
		kind = f.Variant().Kind()
	}
	m.opts.metricsCollector.RecordCompile(kind, d, err)
	m.opts.logger.LogCompile(context.Background(), name, kind, err)
}

// FieldReport is the compile result of one field of a mapping document.
type FieldReport struct {
	Name  string
	Field *mapping.Field
	Err   error
}

// CompileMapping compiles every vector field under doc["properties"].
// Fields of other types are skipped. Reports are sorted by name; the
// returned error is only set when doc has no properties object.
func (m *Mapper) CompileMapping(doc map[string]any) ([]FieldReport, error) {
	props, ok := doc["properties"].(map[string]any)
	if !ok {
		return nil, errors.New("mapping has no properties object")
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	reports := make([]FieldReport, 0, len(names))
	for _, name := range names {
		node, ok := props[name].(map[string]any)
		if !ok || !mapping.IsVectorNode(node) {
			continue
		}
		f, err := m.Compile(name, node)
		reports = append(reports, FieldReport{Name: name, Field: f, Err: err})
	}
	return reports, nil
}

// Parse turns raw into a vector for field. The runtime guards are checked
// first; model-reference fields then resolve their dimension from the
// registry. A nil raw returns ok == false and no error.
func (m *Mapper) Parse(ctx context.Context, field *mapping.Field, raw any) (vector.Value, bool, error) {
	return m.parse(ctx, field, 0, raw)
}

func (m *Mapper) parse(ctx context.Context, field *mapping.Field, id uint32, raw any) (vector.Value, bool, error) {
	if err := m.opts.guards.Check(); err != nil {
		m.opts.metricsCollector.RecordGuardRejection(guardKind(err))
		m.opts.logger.LogGuardRejection(ctx, field.Name(), id, err)
		return vector.Value{}, false, err
	}

	start := time.Now()
	dim, err := m.dimension(ctx, field)
	if err != nil {
		m.opts.logger.LogParse(ctx, field.Name(), id, err)
		return vector.Value{}, false, err
	}

	v, ok, err := vector.Parse(raw, dim)
	if err != nil {
		err = fmt.Errorf("field [%s]: %w", field.Name(), err)
	}
	m.opts.metricsCollector.RecordParse(time.Since(start), err)
	m.opts.logger.LogParse(ctx, field.Name(), id, err)
	return v, ok, err
}

func (m *Mapper) dimension(ctx context.Context, field *mapping.Field) (int, error) {
	ref, ok := field.Variant().(mapping.ModelReference)
	if !ok {
		return field.Dimension(), nil
	}
	if m.opts.registry == nil {
		return 0, &ModelError{Field: field.Name(), ModelID: ref.ModelID, Err: ErrNoRegistry}
	}
	md, err := model.Resolve(ctx, m.opts.registry, ref.ModelID)
	if err != nil {
		return 0, &ModelError{Field: field.Name(), ModelID: ref.ModelID, Err: err}
	}
	return md.Dimension, nil
}

// Index parses doc and hands the vector to the sink. When the field has
// ignore_malformed set, value errors are dropped and OutcomeIgnored is
// returned; guard and model errors are always returned.
func (m *Mapper) Index(ctx context.Context, field *mapping.Field, doc Document) (Outcome, error) {
	if m.opts.sink == nil {
		return OutcomeFailed, ErrNoSink
	}

	v, ok, err := m.parse(ctx, field, doc.ID, doc.Value)
	if err != nil {
		if field.IgnoreMalformed() && Classify(err) == ClassValue {
			m.opts.metricsCollector.RecordIgnored()
			m.opts.logger.LogIgnoredMalformed(ctx, field.Name(), doc.ID, err)
			return OutcomeIgnored, nil
		}
		return OutcomeFailed, err
	}
	if !ok {
		return OutcomeSkipped, nil
	}

	if err := m.opts.sink.Add(ctx, field, doc.ID, v); err != nil {
		return OutcomeFailed, fmt.Errorf("field [%s] doc %d: %w", field.Name(), doc.ID, err)
	}
	return OutcomeIndexed, nil
}

// IndexBatch indexes docs concurrently. Each document gets its own result;
// one failure never stops the others. Results are in input order.
func (m *Mapper) IndexBatch(ctx context.Context, field *mapping.Field, docs []Document) []Result {
	start := time.Now()
	results := make([]Result, len(docs))

	var g errgroup.Group
	g.SetLimit(m.opts.workers)
	for i, doc := range docs {
		g.Go(func() error {
			outcome, err := m.Index(ctx, field, doc)
			results[i] = Result{ID: doc.ID, Outcome: outcome, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	m.opts.metricsCollector.RecordBatch(len(docs), failed, time.Since(start))
	m.opts.logger.LogBatch(ctx, field.Name(), len(docs), failed)
	return results
}
