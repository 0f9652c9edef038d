package mapping

import (
	"maps"
	"sort"

	"github.com/hupe1980/vecfield/engine"
	"github.com/hupe1980/vecfield/method"
	"github.com/hupe1980/vecfield/settings"
)

// Unresolved is the dimension of a field whose dimension is supplied later by
// a model registry.
const Unresolved = -1

// TypeName is the field type handled by this package.
const TypeName = "vector"

// typeAlias is accepted as the type of a mapping node.
const typeAlias = "knn_vector"

// Explicit is a value that records whether it was set explicitly.
type Explicit[T any] struct {
	Value    T
	Explicit bool
}

// LegacyParams are the graph parameters of a Legacy field. Zero values are
// unset and get backfilled from index settings on dispatch.
type LegacyParams struct {
	SpaceType      engine.SpaceType
	M              int
	EfConstruction int
}

// Config is a resolved field configuration. Config values returned by this
// package are copies; mutating one does not affect the field it came from.
type Config struct {
	Name string
	// Dimension is Unresolved when a model reference omits it.
	Dimension       int
	Method          *method.Descriptor
	ModelID         string
	Stored          bool
	DocValues       bool
	Meta            map[string]string
	IgnoreMalformed Explicit[bool]
	Legacy          LegacyParams
}

// MetaKeys returns the meta keys in order.
func (c Config) MetaKeys() []string {
	keys := make([]string, 0, len(c.Meta))
	for k := range c.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c Config) clone() Config {
	out := c
	if c.Meta != nil {
		out.Meta = maps.Clone(c.Meta)
	}
	if c.Method != nil {
		d := *c.Method
		out.Method = &d
	}
	return out
}

// Context carries the read-only collaborators used during resolution.
type Context struct {
	// Engines defaults to engine.DefaultTable().
	Engines *engine.Table
	// Settings may be nil; index-wide settings are then treated as absent.
	Settings settings.Reader
}

func (c Context) engines() *engine.Table {
	if c.Engines == nil {
		return engine.DefaultTable()
	}
	return c.Engines
}
