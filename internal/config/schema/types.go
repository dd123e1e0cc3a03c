package schema

// Common type constants.
const (
	TypeNameString  = "string"
	TypeNameNumber  = "number"
	TypeNameInteger = "integer"
	TypeNameBoolean = "boolean"
	TypeNameArray   = "array"
	TypeNameObject  = "object"
	TypeNameNull    = "null"
)

// Common format constants.
const (
	FormatDuration = "duration"
	FormatURI      = "uri"
	FormatEmail    = "email"
	FormatRegex    = "regex"
	FormatPath     = "path"
)

// Builder provides a fluent API for constructing schemas.
type Builder struct {
	schema *Schema
}

// NewBuilder creates a new schema builder.
func NewBuilder() *Builder {
	return &Builder{
		schema: &Schema{},
	}
}

// Build returns the constructed schema.
func (b *Builder) Build() *Schema {
	return b.schema
}

// ID sets the schema ID.
func (b *Builder) ID(id string) *Builder {
	b.schema.ID = id
	return b
}

// Title sets the schema title.
func (b *Builder) Title(title string) *Builder {
	b.schema.Title = title
	return b
}

// Description sets the schema description.
func (b *Builder) Description(desc string) *Builder {
	b.schema.Description = desc
	return b
}

// Type sets the schema type.
func (b *Builder) Type(types ...string) *Builder {
	b.schema.Type = SchemaType{Types: types}
	return b
}

// Default sets the default value.
func (b *Builder) Default(value any) *Builder {
	b.schema.Default = value
	return b
}

// Enum sets allowed values.
func (b *Builder) Enum(values ...any) *Builder {
	b.schema.Enum = values
	return b
}

// Const sets a constant required value.
func (b *Builder) Const(value any) *Builder {
	b.schema.Const = value
	return b
}

// Minimum sets the minimum value for numbers.
func (b *Builder) Minimum(min float64) *Builder {
	b.schema.Minimum = &min
	return b
}

// Maximum sets the maximum value for numbers.
func (b *Builder) Maximum(max float64) *Builder {
	b.schema.Maximum = &max
	return b
}

// MinLength sets the minimum string length.
func (b *Builder) MinLength(length int) *Builder {
	b.schema.MinLength = &length
	return b
}

// MaxLength sets the maximum string length.
func (b *Builder) MaxLength(length int) *Builder {
	b.schema.MaxLength = &length
	return b
}

// Pattern sets the regex pattern for strings.
func (b *Builder) Pattern(pattern string) *Builder {
	b.schema.Pattern = pattern
	return b
}

// Format sets the semantic format.
func (b *Builder) Format(format string) *Builder {
	b.schema.Format = format
	return b
}

// MinItems sets the minimum array length.
func (b *Builder) MinItems(count int) *Builder {
	b.schema.MinItems = &count
	return b
}

// MaxItems sets the maximum array length.
func (b *Builder) MaxItems(count int) *Builder {
	b.schema.MaxItems = &count
	return b
}

// UniqueItems requires array items to be unique.
func (b *Builder) UniqueItems() *Builder {
	b.schema.UniqueItems = true
	return b
}

// Items sets the schema for array items.
func (b *Builder) Items(schema *Schema) *Builder {
	b.schema.Items = schema
	return b
}

// Property adds a property to an object schema, recording declaration order.
func (b *Builder) Property(name string, schema *Schema) *Builder {
	if b.schema.Properties == nil {
		b.schema.Properties = make(map[string]*Schema)
	}
	if _, exists := b.schema.Properties[name]; !exists {
		b.schema.PropertyOrder = append(b.schema.PropertyOrder, name)
	}
	b.schema.Properties[name] = schema
	return b
}

// Required marks properties as required.
func (b *Builder) Required(names ...string) *Builder {
	b.schema.Required = append(b.schema.Required, names...)
	return b
}

// AdditionalProperties sets whether additional properties are allowed.
func (b *Builder) AdditionalProperties(allowed bool) *Builder {
	b.schema.AdditionalProperties = &allowed
	return b
}

// Deprecated marks the setting as deprecated.
func (b *Builder) Deprecated(message string) *Builder {
	b.schema.Deprecated = true
	b.schema.DeprecationMessage = message
	return b
}

// Convenience functions for creating common schema types

// String creates a string schema.
func String() *Builder {
	return NewBuilder().Type(TypeNameString)
}

// Integer creates an integer schema.
func Integer() *Builder {
	return NewBuilder().Type(TypeNameInteger)
}

// Number creates a number schema.
func Number() *Builder {
	return NewBuilder().Type(TypeNameNumber)
}

// Boolean creates a boolean schema.
func Boolean() *Builder {
	return NewBuilder().Type(TypeNameBoolean)
}

// Array creates an array schema.
func Array() *Builder {
	return NewBuilder().Type(TypeNameArray)
}

// Object creates an object schema.
func Object() *Builder {
	return NewBuilder().Type(TypeNameObject)
}

// StringEnum creates a string enum schema.
func StringEnum(values ...string) *Builder {
	anyValues := make([]any, len(values))
	for i, v := range values {
		anyValues[i] = v
	}
	return String().Enum(anyValues...)
}

// IntRange creates an integer schema with min/max.
func IntRange(min, max int) *Builder {
	return Integer().Minimum(float64(min)).Maximum(float64(max))
}
