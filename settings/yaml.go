package settings

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LoadYAML parses YAML settings. Nested mappings are flattened into dotted
// keys, so both `index.knn.space_type: l2` and the nested form are accepted.
func LoadYAML(data []byte) (Map, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	m := Map{}
	if err := flatten("", raw, m); err != nil {
		return nil, err
	}
	if err := Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadFile reads and parses a YAML settings file.
func LoadFile(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	return LoadYAML(data)
}

// Keys returns the keys of m in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func flatten(prefix string, node map[string]any, out Map) error {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch t := v.(type) {
		case map[string]any:
			if err := flatten(key, t, out); err != nil {
				return err
			}
		case string:
			out[key] = t
		case bool:
			out[key] = strconv.FormatBool(t)
		case int:
			out[key] = strconv.Itoa(t)
		case float64:
			out[key] = strconv.FormatFloat(t, 'f', -1, 64)
		case nil:
		default:
			return fmt.Errorf("setting [%s]: unsupported value of type %T", key, v)
		}
	}
	return nil
}
