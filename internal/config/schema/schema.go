// Package schema provides declarative validation for reconciled
// configuration documents.
//
// A Schema describes the expected shape of a document as a tree of object
// nodes and leaf nodes. Object nodes declare named properties, a required
// set, and whether unknown properties are rejected. Leaf nodes constrain a
// single value by type, enum, const, numeric range, string length and
// pattern, or per-element array rules.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Schema represents one node of a configuration schema.
type Schema struct {
	// ID is the schema identifier ($id).
	ID string `json:"$id,omitempty"`

	// Title is a descriptive title.
	Title string `json:"title,omitempty"`

	// Description provides documentation.
	Description string `json:"description,omitempty"`

	// Type is the JSON type (string, number, integer, boolean, array, object, null).
	Type SchemaType `json:"type,omitempty"`

	// Properties defines object properties (for type: object).
	Properties map[string]*Schema `json:"properties,omitempty"`

	// PropertyOrder preserves the declaration order of properties.
	// Builders populate it; parsed schemas fall back to sorted names.
	PropertyOrder []string `json:"x-property-order,omitempty"`

	// AdditionalProperties controls whether extra properties are allowed.
	AdditionalProperties *bool `json:"additionalProperties,omitempty"`

	// Required lists required property names.
	Required []string `json:"required,omitempty"`

	// Items defines the schema for array elements.
	Items *Schema `json:"items,omitempty"`

	// Enum lists allowed values.
	Enum []any `json:"enum,omitempty"`

	// Const defines a single allowed value.
	Const any `json:"const,omitempty"`

	// Default is the default value.
	Default any `json:"default,omitempty"`

	// Minimum for numeric types.
	Minimum *float64 `json:"minimum,omitempty"`

	// Maximum for numeric types.
	Maximum *float64 `json:"maximum,omitempty"`

	// MinLength for strings.
	MinLength *int `json:"minLength,omitempty"`

	// MaxLength for strings.
	MaxLength *int `json:"maxLength,omitempty"`

	// Pattern is a regex pattern for strings.
	Pattern string `json:"pattern,omitempty"`

	// Format is a semantic format hint (e.g., "uri", "email", "duration").
	Format string `json:"format,omitempty"`

	// MinItems for arrays.
	MinItems *int `json:"minItems,omitempty"`

	// MaxItems for arrays.
	MaxItems *int `json:"maxItems,omitempty"`

	// UniqueItems requires array elements to be unique.
	UniqueItems bool `json:"uniqueItems,omitempty"`

	// Deprecated marks the setting as deprecated.
	Deprecated bool `json:"deprecated,omitempty"`

	// DeprecationMessage explains why and what to use instead.
	DeprecationMessage string `json:"x-deprecation-message,omitempty"`
}

// SchemaType represents schema type(s).
// Can be a single type or an array of types.
type SchemaType struct {
	Types []string
}

// UnmarshalJSON handles both single type and array of types.
func (t *SchemaType) UnmarshalJSON(data []byte) error {
	// Try single string first
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		t.Types = []string{single}
		return nil
	}

	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("type must be string or array of strings: %w", err)
	}
	t.Types = arr
	return nil
}

// MarshalJSON outputs single type as string, multiple as array.
func (t SchemaType) MarshalJSON() ([]byte, error) {
	if len(t.Types) == 1 {
		return json.Marshal(t.Types[0])
	}
	return json.Marshal(t.Types)
}

// Is checks if the schema type includes the given type.
func (t SchemaType) Is(typ string) bool {
	for _, st := range t.Types {
		if st == typ {
			return true
		}
	}
	return false
}

// IsEmpty returns true if no types are defined.
func (t SchemaType) IsEmpty() bool {
	return len(t.Types) == 0
}

// String returns the type as a string.
func (t SchemaType) String() string {
	if len(t.Types) == 1 {
		return t.Types[0]
	}
	return fmt.Sprintf("%v", t.Types)
}

// Parse parses a schema from JSON bytes.
func Parse(data []byte) (*Schema, error) {
	s := &Schema{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	return s, nil
}

// IsObject reports whether this node is an object node with declared
// properties. Leaf nodes (including array nodes) return false.
func (s *Schema) IsObject() bool {
	if s == nil {
		return false
	}
	return s.Type.Is(TypeNameObject) || len(s.Properties) > 0
}

// PropertyNames returns declared property names in declaration order.
// Names missing from PropertyOrder are appended sorted, so parsed schemas
// without an explicit order still walk deterministically.
func (s *Schema) PropertyNames() []string {
	if s == nil || len(s.Properties) == 0 {
		return nil
	}

	names := make([]string, 0, len(s.Properties))
	seen := make(map[string]bool, len(s.Properties))
	for _, name := range s.PropertyOrder {
		if _, ok := s.Properties[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}

	var rest []string
	for name := range s.Properties {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// GetProperty returns the schema for a nested property path.
// Path is dot-separated (e.g., "formatting.indentStyle").
func (s *Schema) GetProperty(path string) *Schema {
	if s == nil || path == "" {
		return s
	}

	parts := splitPath(path)
	current := s

	for _, part := range parts {
		if current.Properties == nil {
			return nil
		}
		prop, ok := current.Properties[part]
		if !ok {
			return nil
		}
		current = prop
	}

	return current
}

// HasProperty checks if a property exists at the given path.
func (s *Schema) HasProperty(path string) bool {
	return s.GetProperty(path) != nil
}

// IsRequired checks if a property is required.
func (s *Schema) IsRequired(name string) bool {
	for _, req := range s.Required {
		if req == name {
			return true
		}
	}
	return false
}

// AllowsAdditionalProperties returns whether additional properties are allowed.
func (s *Schema) AllowsAdditionalProperties() bool {
	if s.AdditionalProperties == nil {
		return true // Default is true
	}
	return *s.AdditionalProperties
}

// splitPath splits a dot-separated path into parts.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}

	var parts []string
	current := ""
	for _, c := range path {
		if c == '.' {
			if current != "" {
				parts = append(parts, current)
				current = ""
			}
		} else {
			current += string(c)
		}
	}
	if current != "" {
		parts = append(parts, current)
	}
	return parts
}
