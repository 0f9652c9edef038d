package mapping

import (
	"encoding/json"
	"errors"
	"maps"
	"strconv"
	"strings"

	"github.com/hupe1980/vecfield/internal/conv"
	"github.com/hupe1980/vecfield/method"
	"github.com/hupe1980/vecfield/settings"
)

// Parameter keys.
const (
	KeyType            = "type"
	KeyStore           = "store"
	KeyDocValues       = "doc_values"
	KeyDimension       = "dimension"
	KeyMeta            = "meta"
	KeyMethod          = "method"
	KeyModelID         = "model_id"
	KeyIgnoreMalformed = "ignore_malformed"
)

// parameter describes one mapping parameter. Resolution applies the list in
// order: init seeds the value (from prev when merging), parse applies a raw
// value, same detects changes of non-updatable parameters and export writes
// the value back.
type parameter struct {
	key       string
	updatable bool
	init      func(dst *Config, prev *Config, ctx Context)
	parse     func(dst *Config, raw any, ctx Context) error
	same      func(a, b *Config) bool
	export    func(c *Config, includeDefaults bool) (any, bool)
}

var parameters = []parameter{
	{
		key: KeyStore,
		init: func(dst *Config, prev *Config, _ Context) {
			if prev != nil {
				dst.Stored = prev.Stored
			}
		},
		parse: func(dst *Config, raw any, _ Context) error {
			return parseBool(raw, &dst.Stored)
		},
		same: func(a, b *Config) bool { return a.Stored == b.Stored },
		export: func(c *Config, includeDefaults bool) (any, bool) {
			return c.Stored, c.Stored || includeDefaults
		},
	},
	{
		key: KeyDocValues,
		init: func(dst *Config, prev *Config, _ Context) {
			dst.DocValues = true
			if prev != nil {
				dst.DocValues = prev.DocValues
			}
		},
		parse: func(dst *Config, raw any, _ Context) error {
			return parseBool(raw, &dst.DocValues)
		},
		same: func(a, b *Config) bool { return a.DocValues == b.DocValues },
		export: func(c *Config, includeDefaults bool) (any, bool) {
			return c.DocValues, !c.DocValues || includeDefaults
		},
	},
	{
		key: KeyDimension,
		init: func(dst *Config, prev *Config, _ Context) {
			dst.Dimension = Unresolved
			if prev != nil {
				dst.Dimension = prev.Dimension
			}
		},
		parse: func(dst *Config, raw any, _ Context) error {
			d, ok := coerceDimension(raw)
			if !ok || d <= 0 {
				return &ConfigError{Kind: ErrInvalidDimension, Param: KeyDimension, Value: raw}
			}
			dst.Dimension = d
			return nil
		},
		same: func(a, b *Config) bool { return a.Dimension == b.Dimension },
		export: func(c *Config, _ bool) (any, bool) {
			return c.Dimension, c.Dimension != Unresolved
		},
	},
	{
		key:       KeyMeta,
		updatable: true,
		init: func(dst *Config, prev *Config, _ Context) {
			if prev != nil && prev.Meta != nil {
				dst.Meta = maps.Clone(prev.Meta)
			}
		},
		parse: func(dst *Config, raw any, _ Context) error {
			if raw == nil {
				dst.Meta = nil
				return nil
			}
			node, ok := raw.(map[string]any)
			if !ok {
				return &ConfigError{Kind: ErrInvalidParameter, Param: KeyMeta, Value: raw}
			}
			meta := make(map[string]string, len(node))
			for k, v := range node {
				s, ok := v.(string)
				if !ok {
					return &ConfigError{Kind: ErrInvalidParameter, Param: KeyMeta + "." + k, Value: v}
				}
				meta[k] = s
			}
			dst.Meta = meta
			return nil
		},
		same: func(a, b *Config) bool { return maps.Equal(a.Meta, b.Meta) },
		export: func(c *Config, includeDefaults bool) (any, bool) {
			out := make(map[string]any, len(c.Meta))
			for k, v := range c.Meta {
				out[k] = v
			}
			return out, len(c.Meta) > 0 || includeDefaults
		},
	},
	{
		key: KeyMethod,
		init: func(dst *Config, prev *Config, _ Context) {
			if prev != nil && prev.Method != nil {
				d := *prev.Method
				dst.Method = &d
			}
		},
		parse: func(dst *Config, raw any, ctx Context) error {
			if raw == nil {
				return nil
			}
			d, err := parseMethod(raw, ctx)
			if err != nil {
				return err
			}
			dst.Method = &d
			return nil
		},
		same: func(a, b *Config) bool {
			if a.Method == nil || b.Method == nil {
				return a.Method == nil && b.Method == nil
			}
			return a.Method.Equal(*b.Method)
		},
		export: func(c *Config, _ bool) (any, bool) {
			if c.Method == nil {
				return nil, false
			}
			return c.Method.Export(), true
		},
	},
	{
		key: KeyModelID,
		init: func(dst *Config, prev *Config, _ Context) {
			if prev != nil {
				dst.ModelID = prev.ModelID
			}
		},
		parse: func(dst *Config, raw any, _ Context) error {
			if raw == nil {
				return nil
			}
			s, ok := raw.(string)
			if !ok || s == "" {
				return &ConfigError{Kind: ErrInvalidParameter, Param: KeyModelID, Value: raw}
			}
			dst.ModelID = s
			return nil
		},
		same: func(a, b *Config) bool { return a.ModelID == b.ModelID },
		export: func(c *Config, _ bool) (any, bool) {
			return c.ModelID, c.ModelID != ""
		},
	},
	{
		key:       KeyIgnoreMalformed,
		updatable: true,
		init: func(dst *Config, prev *Config, ctx Context) {
			if prev != nil && prev.IgnoreMalformed.Explicit {
				dst.IgnoreMalformed = prev.IgnoreMalformed
				return
			}
			v, _ := settings.IgnoreMalformed(ctx.Settings)
			dst.IgnoreMalformed = Explicit[bool]{Value: v}
		},
		parse: func(dst *Config, raw any, _ Context) error {
			var v bool
			if err := parseBool(raw, &v); err != nil {
				return err
			}
			dst.IgnoreMalformed = Explicit[bool]{Value: v, Explicit: true}
			return nil
		},
		same: func(a, b *Config) bool { return a.IgnoreMalformed == b.IgnoreMalformed },
		export: func(c *Config, includeDefaults bool) (any, bool) {
			return c.IgnoreMalformed.Value, c.IgnoreMalformed.Explicit || includeDefaults
		},
	},
}

func lookupParameter(key string) bool {
	for _, p := range parameters {
		if p.key == key {
			return true
		}
	}
	return false
}

func parseBool(raw any, dst *bool) error {
	switch v := raw.(type) {
	case bool:
		*dst = v
		return nil
	case string:
		b, err := strconv.ParseBool(v)
		if err == nil {
			*dst = b
			return nil
		}
	}
	return &ConfigError{Kind: ErrInvalidParameter, Value: raw}
}

func parseMethod(raw any, ctx Context) (method.Descriptor, error) {
	table := ctx.engines()

	d, err := method.Parse(raw, table)
	if err != nil {
		return method.Descriptor{}, &ConfigError{
			Kind:    ErrMethodValidationFailed,
			Param:   KeyMethod,
			Methods: nestedErrors(err),
		}
	}

	verr := d.Validate(table)
	if d.TrainingRequired() {
		return method.Descriptor{}, &ConfigError{
			Kind:    ErrTrainingNotSupportedInline,
			Param:   KeyMethod,
			Methods: nestedErrors(verr),
		}
	}
	if verr != nil {
		return method.Descriptor{}, &ConfigError{
			Kind:    ErrMethodValidationFailed,
			Param:   KeyMethod,
			Methods: nestedErrors(verr),
		}
	}
	return d, nil
}

func nestedErrors(err error) []method.Error {
	var verr *method.ValidationError
	if errors.As(err, &verr) {
		return verr.Errors
	}
	if err != nil {
		return []method.Error{{Message: err.Error()}}
	}
	return nil
}

// coerceDimension applies integer node rules: integers as-is, floats
// truncated toward zero, strings parsed as base-10 integers. Values outside
// the int32 range are rejected.
func coerceDimension(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return fromInt64(int64(v))
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return fromInt64(v)
	case uint:
		return fromUint64(uint64(v))
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return fromUint64(uint64(v))
	case uint64:
		return fromUint64(v)
	case float32:
		return fromFloat64(float64(v))
	case float64:
		return fromFloat64(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return fromInt64(i)
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return fromFloat64(f)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

func fromInt64(v int64) (int, bool) {
	i, err := conv.Int64ToInt32(v)
	if err != nil {
		return 0, false
	}
	return int(i), true
}

func fromUint64(v uint64) (int, bool) {
	i, err := conv.Uint64ToInt32(v)
	if err != nil {
		return 0, false
	}
	return int(i), true
}

func fromFloat64(v float64) (int, bool) {
	i, err := conv.Float64ToInt32(v)
	if err != nil {
		return 0, false
	}
	return int(i), true
}
