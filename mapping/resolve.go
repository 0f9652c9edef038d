package mapping

import (
	"errors"
	"sort"
)

// Resolve resolves a raw mapping node into a Config. It performs no external
// lookups; model references keep an Unresolved dimension.
func Resolve(name string, node map[string]any, ctx Context) (Config, error) {
	return resolve(name, node, nil, ctx)
}

func resolve(name string, node map[string]any, prev *Config, ctx Context) (Config, error) {
	cfg := Config{Name: name}

	if err := checkKeys(name, node); err != nil {
		return Config{}, err
	}

	for _, p := range parameters {
		p.init(&cfg, prev, ctx)

		raw, ok := node[p.key]
		if !ok {
			continue
		}
		if err := p.parse(&cfg, raw, ctx); err != nil {
			return Config{}, withField(err, name, p.key)
		}
		if prev != nil && !p.updatable && !p.same(prev, &cfg) {
			return Config{}, &ConfigError{Field: name, Kind: ErrParameterNotUpdatable, Param: p.key, Value: raw}
		}
	}

	if cfg.Method != nil && cfg.ModelID != "" {
		return Config{}, &ConfigError{Field: name, Kind: ErrConflictingMethodAndModel}
	}

	if cfg.Dimension == Unresolved {
		if cfg.ModelID == "" {
			return Config{}, &ConfigError{Field: name, Kind: ErrMissingDimension, Param: KeyDimension}
		}
	} else {
		table := ctx.engines()
		id := table.Default()
		if cfg.Method != nil {
			id = cfg.Method.Engine()
		}
		if limit := table.MaxDimension(id); cfg.Dimension > limit {
			return Config{}, &ConfigError{
				Field:  name,
				Kind:   ErrDimensionTooLarge,
				Param:  KeyDimension,
				Value:  cfg.Dimension,
				Limit:  limit,
				Engine: id,
			}
		}
	}

	if prev != nil {
		cfg.Legacy = prev.Legacy
	}
	return cfg, nil
}

func checkKeys(name string, node map[string]any) error {
	if t, ok := node[KeyType]; ok {
		if s, _ := t.(string); s != TypeName && s != typeAlias {
			return &ConfigError{Field: name, Kind: ErrInvalidParameter, Param: KeyType, Value: t}
		}
	}

	var unknown []string
	for k := range node {
		if k != KeyType && !lookupParameter(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &ConfigError{Field: name, Kind: ErrUnknownParameter, Param: unknown[0]}
	}
	return nil
}

func withField(err error, name, key string) error {
	var cerr *ConfigError
	if errors.As(err, &cerr) {
		cerr.Field = name
		if cerr.Param == "" {
			cerr.Param = key
		}
		return cerr
	}
	return err
}

// IsVectorNode reports whether node declares a vector field type.
func IsVectorNode(node map[string]any) bool {
	s, _ := node[KeyType].(string)
	return s == TypeName || s == typeAlias
}
