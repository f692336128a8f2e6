package datasource

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DriverPropertyPrefix marks passthrough properties that are handed to the
// database driver itself (e.g. "dataSource.sslmode" becomes sslmode=...).
const DriverPropertyPrefix = "dataSource."

// Property is a single named configuration value.
type Property struct {
	Key   string
	Value any
}

// Properties is an ordered mapping of property names to scalar values.
// Order follows the configuration document; keys are unique.
type Properties []Property

// PropertiesFromMap builds Properties from a map, ordered by key.
func PropertiesFromMap(m map[string]any) Properties {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	props := make(Properties, 0, len(keys))
	for _, k := range keys {
		props = append(props, Property{Key: k, Value: m[k]})
	}
	return props
}

// Get returns the value stored under key.
func (p Properties) Get(key string) (any, bool) {
	for _, prop := range p {
		if prop.Key == key {
			return prop.Value, true
		}
	}
	return nil, false
}

// With returns a copy of p with key set to value. An existing key keeps its
// position; a new key is appended.
func (p Properties) With(key string, value any) Properties {
	out := p.Clone()
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Property{Key: key, Value: value})
}

// Clone returns an independent copy of p.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	copy(out, p)
	return out
}

// Map returns the properties as an unordered map.
func (p Properties) Map() map[string]any {
	m := make(map[string]any, len(p))
	for _, prop := range p {
		m[prop.Key] = prop.Value
	}
	return m
}

// DriverProperties returns the properties carrying DriverPropertyPrefix with
// the prefix stripped and values stringified, in document order.
func (p Properties) DriverProperties() []Property {
	var out []Property
	for _, prop := range p {
		name, ok := strings.CutPrefix(prop.Key, DriverPropertyPrefix)
		if !ok || name == "" {
			continue
		}
		out = append(out, Property{Key: name, Value: stringify(prop.Value)})
	}
	return out
}

// UnmarshalYAML decodes a YAML mapping of scalars, keeping document order.
func (p *Properties) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("properties must be a mapping, got %s", nodeKind(value.Kind))
	}

	props := make(Properties, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valNode := value.Content[i], value.Content[i+1]
		if valNode.Kind == yaml.AliasNode {
			valNode = valNode.Alias
		}
		if valNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("property %q: value must be a scalar, got %s", keyNode.Value, nodeKind(valNode.Kind))
		}

		var v any
		if err := valNode.Decode(&v); err != nil {
			return fmt.Errorf("property %q: %w", keyNode.Value, err)
		}
		props = props.With(keyNode.Value, v)
	}

	*p = props
	return nil
}

func nodeKind(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
