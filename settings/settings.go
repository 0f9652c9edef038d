// Package settings reads index-wide settings relevant to vector fields.
//
// Settings are looked up by dotted key through the Reader interface. Typed
// accessors apply the documented defaults when a key is absent or holds a
// value that does not parse, so callers never have to handle a missing
// setting.
package settings

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/hupe1980/vecfield/engine"
)

// Setting keys.
const (
	KeySpaceType       = "index.knn.space_type"
	KeyM               = "index.knn.algo_param.m"
	KeyEfConstruction  = "index.knn.algo_param.ef_construction"
	KeyIgnoreMalformed = "index.mapping.ignore_malformed"
	KeyPluginEnabled   = "knn.plugin.enabled"
)

// Defaults.
const (
	DefaultM              = 16
	DefaultEfConstruction = 512
	minGraphParam         = 2
)

// Reader looks up index settings by key.
type Reader interface {
	Get(key string) (string, bool)
}

// Map is a Reader backed by a plain map.
type Map map[string]string

// Get implements Reader.
func (m Map) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func get(r Reader, key string) (string, bool) {
	if r == nil {
		return "", false
	}
	return r.Get(key)
}

// SpaceType returns the index-wide space type.
func SpaceType(r Reader) engine.SpaceType {
	if v, ok := get(r, KeySpaceType); ok && v != "" {
		return engine.SpaceType(v)
	}
	return engine.DefaultSpaceType
}

// M returns the index-wide HNSW m parameter.
func M(r Reader) int {
	return graphParam(r, KeyM, DefaultM)
}

// EfConstruction returns the index-wide HNSW ef_construction parameter.
func EfConstruction(r Reader) int {
	return graphParam(r, KeyEfConstruction, DefaultEfConstruction)
}

func graphParam(r Reader, key string, def int) int {
	v, ok := get(r, key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < minGraphParam {
		return def
	}
	return n
}

// IgnoreMalformed returns the index-wide ignore_malformed setting and
// whether a reader was available to consult. A nil reader yields (false, false).
func IgnoreMalformed(r Reader) (value bool, available bool) {
	if r == nil {
		return false, false
	}
	v, ok := r.Get(KeyIgnoreMalformed)
	if !ok {
		return false, true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, true
	}
	return b, true
}

// PluginEnabled returns the vector feature flag. It defaults to true.
func PluginEnabled(r Reader) bool {
	v, ok := get(r, KeyPluginEnabled)
	if !ok {
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return b
}

// Validate reports every known key whose value does not parse.
func Validate(r Reader) error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, key := range []string{KeyM, KeyEfConstruction} {
		v, ok := r.Get(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("setting [%s]: %q is not an integer", key, v))
			continue
		}
		if n < minGraphParam {
			errs = append(errs, fmt.Errorf("setting [%s]: %d is less than %d", key, n, minGraphParam))
		}
	}
	for _, key := range []string{KeyIgnoreMalformed, KeyPluginEnabled} {
		v, ok := r.Get(key)
		if !ok {
			continue
		}
		if _, err := strconv.ParseBool(v); err != nil {
			errs = append(errs, fmt.Errorf("setting [%s]: %q is not a boolean", key, v))
		}
	}
	if v, ok := r.Get(KeySpaceType); ok && v == "" {
		errs = append(errs, fmt.Errorf("setting [%s] must not be empty", KeySpaceType))
	}
	return errors.Join(errs...)
}
