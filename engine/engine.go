package engine

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// ID identifies a native engine.
type ID string

// Built-in engines.
const (
	NMSLIB ID = "nmslib"
	Faiss  ID = "faiss"
	Lucene ID = "lucene"
)

// SpaceType names the distance space a vector field is indexed in.
type SpaceType string

// Supported space types.
const (
	SpaceL2           SpaceType = "l2"
	SpaceCosine       SpaceType = "cosinesimil"
	SpaceInnerProduct SpaceType = "innerproduct"
	SpaceL1           SpaceType = "l1"
	SpaceLInf         SpaceType = "linf"
)

// DefaultSpaceType is used when neither the method nor the index settings name one.
const DefaultSpaceType = SpaceL2

// ParamSpec bounds an integer method parameter.
type ParamSpec struct {
	Key string
	Min int
	Max int // 0 means unbounded
}

// Check reports whether v lies within the bounds of the spec.
func (p ParamSpec) Check(v int) error {
	if v < p.Min {
		return fmt.Errorf("value %d is less than the minimum %d", v, p.Min)
	}
	if p.Max > 0 && v > p.Max {
		return fmt.Errorf("value %d is greater than the maximum %d", v, p.Max)
	}
	return nil
}

// MethodSpec describes one method an engine offers.
type MethodSpec struct {
	Name             string
	TrainingRequired bool
	Params           []ParamSpec
}

// Param returns the parameter spec for key.
func (m MethodSpec) Param(key string) (ParamSpec, bool) {
	for _, p := range m.Params {
		if p.Key == key {
			return p, true
		}
	}
	return ParamSpec{}, false
}

// Capability is the capability record of a single engine.
type Capability struct {
	ID           ID
	MaxDimension int
	// NativeCodec marks engines that store vectors through their own
	// doc-values codec instead of a side-channel index file.
	NativeCodec bool
	SpaceTypes  []SpaceType
	Methods     []MethodSpec
}

// Method returns the method spec called name.
func (c Capability) Method(name string) (MethodSpec, bool) {
	for _, m := range c.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return MethodSpec{}, false
}

// SupportsSpace reports whether the engine indexes vectors in space s.
func (c Capability) SupportsSpace(s SpaceType) bool {
	return slices.Contains(c.SpaceTypes, s)
}

// Table is a read-only engine capability table.
// It is safe for concurrent use.
type Table struct {
	def  ID
	caps map[ID]Capability
}

// NewTable creates a table from caps. def must be one of the given engines.
func NewTable(def ID, caps ...Capability) (*Table, error) {
	t := &Table{
		def:  def,
		caps: make(map[ID]Capability, len(caps)),
	}
	for _, c := range caps {
		if c.ID == "" {
			return nil, errors.New("engine id must not be empty")
		}
		if c.MaxDimension <= 0 {
			return nil, fmt.Errorf("engine %q: max dimension must be positive", c.ID)
		}
		if _, dup := t.caps[c.ID]; dup {
			return nil, fmt.Errorf("engine %q registered twice", c.ID)
		}
		c.SpaceTypes = slices.Clone(c.SpaceTypes)
		c.Methods = slices.Clone(c.Methods)
		t.caps[c.ID] = c
	}
	if _, ok := t.caps[def]; !ok {
		return nil, fmt.Errorf("default engine %q is not registered", def)
	}
	return t, nil
}

// MustNewTable is like NewTable but panics on error.
func MustNewTable(def ID, caps ...Capability) *Table {
	t, err := NewTable(def, caps...)
	if err != nil {
		panic(err)
	}
	return t
}

// Default returns the engine used when a field names no method.
func (t *Table) Default() ID {
	return t.def
}

// Lookup returns the capability record of id.
func (t *Table) Lookup(id ID) (Capability, bool) {
	c, ok := t.caps[id]
	return c, ok
}

// MaxDimension returns the largest dimension id accepts, or 0 for unknown engines.
func (t *Table) MaxDimension(id ID) int {
	return t.caps[id].MaxDimension
}

// Engines returns the registered engine ids in sorted order.
func (t *Table) Engines() []ID {
	ids := make([]ID, 0, len(t.caps))
	for id := range t.caps {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

var hnswGraphParams = []ParamSpec{
	{Key: "m", Min: 2},
	{Key: "ef_construction", Min: 2},
}

var defaultTable = MustNewTable(NMSLIB,
	Capability{
		ID:           NMSLIB,
		MaxDimension: 10000,
		SpaceTypes:   []SpaceType{SpaceL2, SpaceCosine, SpaceInnerProduct, SpaceL1, SpaceLInf},
		Methods: []MethodSpec{
			{Name: "hnsw", Params: hnswGraphParams},
		},
	},
	Capability{
		ID:           Faiss,
		MaxDimension: 10000,
		SpaceTypes:   []SpaceType{SpaceL2, SpaceInnerProduct},
		Methods: []MethodSpec{
			{Name: "hnsw", Params: append(slices.Clone(hnswGraphParams), ParamSpec{Key: "ef_search", Min: 2})},
			{Name: "ivf", TrainingRequired: true, Params: []ParamSpec{
				{Key: "nlist", Min: 1},
				{Key: "nprobes", Min: 1},
			}},
		},
	},
	Capability{
		ID:           Lucene,
		MaxDimension: 1024,
		NativeCodec:  true,
		SpaceTypes:   []SpaceType{SpaceL2, SpaceCosine},
		Methods: []MethodSpec{
			{Name: "hnsw", Params: []ParamSpec{
				{Key: "m", Min: 2, Max: 512},
				{Key: "ef_construction", Min: 2, Max: 3200},
			}},
		},
	},
)

// DefaultTable returns the built-in capability table (default engine nmslib).
func DefaultTable() *Table {
	return defaultTable
}
