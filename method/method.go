package method

import (
	"encoding/json"
	"math"
	"reflect"
	"sort"

	"github.com/hupe1980/vecfield/engine"
)

// DefaultName is the method used when a descriptor names none.
const DefaultName = "hnsw"

// Raw descriptor keys.
const (
	KeyName             = "name"
	KeyEngine           = "engine"
	KeySpaceType        = "space_type"
	KeyTrainingRequired = "training_required"
	KeyParameters       = "parameters"
)

// Descriptor is a parsed method descriptor. It is an immutable value.
type Descriptor struct {
	name             string
	engine           engine.ID
	spaceType        engine.SpaceType
	trainingFlag     bool // set explicitly in the raw descriptor
	trainingRequired bool
	parameters       map[string]any
}

// New creates a descriptor without going through the raw form.
func New(name string, id engine.ID, space engine.SpaceType, params map[string]any) Descriptor {
	return Descriptor{
		name:       name,
		engine:     id,
		spaceType:  space,
		parameters: copyMap(params),
	}
}

// Parse parses a raw descriptor. Missing name, engine and space type are
// defaulted from DefaultName, the table's default engine and
// engine.DefaultSpaceType. Structural problems are returned together as a
// *ValidationError.
func Parse(raw any, table *engine.Table) (Descriptor, error) {
	node, ok := raw.(map[string]any)
	if !ok {
		verr := &ValidationError{}
		verr.addf("", "method must be an object, got %T", raw)
		return Descriptor{}, verr
	}

	verr := &ValidationError{}
	d := Descriptor{
		name:      DefaultName,
		engine:    table.Default(),
		spaceType: engine.DefaultSpaceType,
	}

	keys := make([]string, 0, len(node))
	for k := range node {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := node[k]
		switch k {
		case KeyName:
			if s, ok := v.(string); ok && s != "" {
				d.name = s
			} else {
				verr.addf(k, "must be a non-empty string")
			}
		case KeyEngine:
			if s, ok := v.(string); ok && s != "" {
				d.engine = engine.ID(s)
			} else {
				verr.addf(k, "must be a non-empty string")
			}
		case KeySpaceType:
			if s, ok := v.(string); ok && s != "" {
				d.spaceType = engine.SpaceType(s)
			} else {
				verr.addf(k, "must be a non-empty string")
			}
		case KeyTrainingRequired:
			if b, ok := v.(bool); ok {
				d.trainingFlag = b
			} else {
				verr.addf(k, "must be a boolean")
			}
		case KeyParameters:
			if v == nil {
				continue
			}
			if m, ok := v.(map[string]any); ok {
				d.parameters = copyMap(m)
			} else {
				verr.addf(k, "must be an object")
			}
		default:
			verr.addf(k, "unknown method key")
		}
	}

	if err := verr.errOrNil(); err != nil {
		return Descriptor{}, err
	}

	d.trainingRequired = d.trainingFlag
	if c, ok := table.Lookup(d.engine); ok {
		if spec, ok := c.Method(d.name); ok && spec.TrainingRequired {
			d.trainingRequired = true
		}
	}
	return d, nil
}

// Validate checks the descriptor against table and returns every problem as
// one *ValidationError, or nil.
func (d Descriptor) Validate(table *engine.Table) error {
	verr := &ValidationError{}

	c, ok := table.Lookup(d.engine)
	if !ok {
		verr.addf(KeyEngine, "invalid engine %q", d.engine)
		return verr
	}

	if !c.SupportsSpace(d.spaceType) {
		verr.addf(KeySpaceType, "space type %q is not supported by engine %q", d.spaceType, d.engine)
	}

	spec, ok := c.Method(d.name)
	if !ok {
		verr.addf(KeyName, "method %q is not supported by engine %q", d.name, d.engine)
		return verr.errOrNil()
	}

	for _, k := range sortedKeys(d.parameters) {
		path := KeyParameters + "." + k
		p, ok := spec.Param(k)
		if !ok {
			verr.addf(path, "unknown parameter for method %q", d.name)
			continue
		}
		n, ok := asInt(d.parameters[k])
		if !ok {
			verr.addf(path, "must be an integer")
			continue
		}
		if err := p.Check(n); err != nil {
			verr.addf(path, "%v", err)
		}
	}

	return verr.errOrNil()
}

// Name returns the method name.
func (d Descriptor) Name() string { return d.name }

// Engine returns the engine the method runs on.
func (d Descriptor) Engine() engine.ID { return d.engine }

// SpaceType returns the space type.
func (d Descriptor) SpaceType() engine.SpaceType { return d.spaceType }

// TrainingRequired reports whether building the method needs a trained model.
func (d Descriptor) TrainingRequired() bool { return d.trainingRequired }

// Parameters returns a deep copy of the method parameters.
func (d Descriptor) Parameters() map[string]any { return copyMap(d.parameters) }

// Parameter returns a single integer parameter.
func (d Descriptor) Parameter(key string) (int, bool) {
	v, ok := d.parameters[key]
	if !ok {
		return 0, false
	}
	return asInt(v)
}

// Equal reports whether d and o describe the same method.
func (d Descriptor) Equal(o Descriptor) bool {
	if d.name != o.name || d.engine != o.engine || d.spaceType != o.spaceType ||
		d.trainingRequired != o.trainingRequired {
		return false
	}
	if len(d.parameters) != len(o.parameters) {
		return false
	}
	for k, v := range d.parameters {
		ov, ok := o.parameters[k]
		if !ok {
			return false
		}
		a, aok := asInt(v)
		b, bok := asInt(ov)
		if aok && bok {
			if a != b {
				return false
			}
			continue
		}
		if !reflect.DeepEqual(v, ov) {
			return false
		}
	}
	return true
}

// Export returns the descriptor in its raw form.
func (d Descriptor) Export() map[string]any {
	out := map[string]any{
		KeyName:      d.name,
		KeyEngine:    string(d.engine),
		KeySpaceType: string(d.spaceType),
	}
	if len(d.parameters) > 0 {
		out[KeyParameters] = copyMap(d.parameters)
	}
	if d.trainingFlag {
		out[KeyTrainingRequired] = true
	}
	return out
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return asInt(i)
	default:
		return 0, false
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = copyValue(t[i])
		}
		return out
	default:
		return v
	}
}
