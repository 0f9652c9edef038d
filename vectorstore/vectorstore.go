// Package vectorstore is an in-memory per-field vector store.
//
// It receives parsed vectors from the mapper, keeps stored-field bytes and
// doc-values bitmaps according to each field's configuration, and answers
// exists queries. Every vector held reserves 4 bytes per component in a
// resource.Controller, which is what the memory circuit breaker watches.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/vecfield/mapping"
	"github.com/hupe1980/vecfield/resource"
	"github.com/hupe1980/vecfield/vector"
)

var (
	// ErrWrongDimension is returned when a vector doesn't match the dimension
	// already recorded for its field.
	ErrWrongDimension = errors.New("wrong vector dimension")
	// ErrUnsupportedQuery is returned by Match for query types the store
	// cannot evaluate.
	ErrUnsupportedQuery = errors.New("unsupported query")
)

const bytesPerComponent = 4

type fieldData struct {
	dim       int
	vectors   map[uint32]vector.Value
	stored    map[uint32][]byte
	present   *roaring.Bitmap
	docValues *roaring.Bitmap
}

func newFieldData(dim int) *fieldData {
	return &fieldData{
		dim:       dim,
		vectors:   make(map[uint32]vector.Value),
		stored:    make(map[uint32][]byte),
		present:   roaring.New(),
		docValues: roaring.New(),
	}
}

// Store holds vectors by field name and document id.
// It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	fields map[string]*fieldData
	rc     *resource.Controller
}

// Option configures a Store.
type Option func(*Store)

// WithResourceController accounts vector memory in rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(s *Store) { s.rc = rc }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{fields: make(map[string]*fieldData)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func footprint(v vector.Value) int64 {
	return int64(v.Len()) * bytesPerComponent
}

// Add stores v for document id of field f, replacing any previous value.
func (s *Store) Add(ctx context.Context, f *mapping.Field, id uint32, v vector.Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fd := s.fields[f.Name()]
	if fd != nil && fd.dim != v.Len() {
		return fmt.Errorf("%w: field [%s] holds %d-dimensional vectors, got %d",
			ErrWrongDimension, f.Name(), fd.dim, v.Len())
	}

	if err := s.rc.AcquireMemory(footprint(v)); err != nil {
		return fmt.Errorf("field [%s] doc %d: %w", f.Name(), id, err)
	}

	if fd == nil {
		fd = newFieldData(v.Len())
		s.fields[f.Name()] = fd
	}
	if old, ok := fd.vectors[id]; ok {
		s.rc.ReleaseMemory(footprint(old))
	}

	fd.vectors[id] = v
	fd.present.Add(id)
	if f.Stored() {
		fd.stored[id] = v.Bytes()
	} else {
		delete(fd.stored, id)
	}
	if f.DocValues() {
		fd.docValues.Add(id)
	} else {
		fd.docValues.Remove(id)
	}
	return nil
}

// Delete removes document id from field and releases its memory.
// It reports whether a value was present.
func (s *Store) Delete(field string, id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	fd := s.fields[field]
	if fd == nil {
		return false
	}
	v, ok := fd.vectors[id]
	if !ok {
		return false
	}

	delete(fd.vectors, id)
	delete(fd.stored, id)
	fd.present.Remove(id)
	fd.docValues.Remove(id)
	s.rc.ReleaseMemory(footprint(v))

	if len(fd.vectors) == 0 {
		delete(s.fields, field)
	}
	return true
}

// Get returns the vector of document id.
func (s *Store) Get(field string, id uint32) (vector.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fd := s.fields[field]
	if fd == nil {
		return vector.Value{}, false
	}
	v, ok := fd.vectors[id]
	return v, ok
}

// Stored returns the stored-field bytes of document id. Only fields with
// store enabled keep them.
func (s *Store) Stored(field string, id uint32) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fd := s.fields[field]
	if fd == nil {
		return nil, false
	}
	b, ok := fd.stored[id]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, true
}

// DocValues returns a copy of the documents with doc values for field.
func (s *Store) DocValues(field string) *roaring.Bitmap {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if fd := s.fields[field]; fd != nil {
		return fd.docValues.Clone()
	}
	return roaring.New()
}

// Match evaluates q against the store.
func (s *Store) Match(q mapping.Query) (*roaring.Bitmap, error) {
	switch q := q.(type) {
	case mapping.ExistsQuery:
		s.mu.RLock()
		defer s.mu.RUnlock()

		if fd := s.fields[q.FieldName]; fd != nil {
			return fd.present.Clone(), nil
		}
		return roaring.New(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedQuery, q)
	}
}

// Count returns the number of documents with a value for field.
func (s *Store) Count(field string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if fd := s.fields[field]; fd != nil {
		return fd.present.GetCardinality()
	}
	return 0
}

// Fields returns the names of fields holding at least one vector.
func (s *Store) Fields() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
