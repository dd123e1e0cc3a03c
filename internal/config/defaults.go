package config

import "github.com/dshills/reconfig/internal/config/schema"

// SchemaVersion is the current document format version.
const SchemaVersion = "1.0.0"

// DefaultSchema returns the schema every document is reconciled against.
// Property declaration order drives the repair walk and the order of
// reported corrections.
func DefaultSchema() *schema.Schema {
	return schema.Object().
		Title("Project Configuration").
		Property("projectName", schema.String().MinLength(1).Build()).
		Property("projectLicense", schema.String().Build()).
		Property("packageManager", schema.StringEnum("npm", "yarn", "pnpm", "bun").Build()).
		Property("framework", schema.StringEnum("none", "react", "vue", "svelte", "express").Build()).
		Property("features", schema.Array().
			Items(schema.StringEnum("lint", "format", "test", "ci", "docker", "docs").Build()).
			UniqueItems().
			Build()).
		Property("formatting", schema.Object().
			Property("indentStyle", schema.StringEnum("space", "tab").Build()).
			Property("indentSize", schema.IntRange(1, 8).Build()).
			Property("lineWidth", schema.IntRange(40, 200).Build()).
			Property("semicolons", schema.Boolean().Build()).
			Required("indentStyle", "indentSize").
			AdditionalProperties(false).
			Build()).
		Property("paths", schema.Object().
			Property("source", schema.String().MinLength(1).Build()).
			Property("output", schema.String().MinLength(1).Build()).
			Property("tests", schema.String().MinLength(1).Build()).
			Required("source", "output").
			AdditionalProperties(false).
			Build()).
		Property("_version", schema.String().Pattern(`^\d+\.\d+\.\d+$`).Build()).
		Required("projectName", "packageManager", "formatting", "paths").
		AdditionalProperties(false).
		Build()
}

// DefaultDocument returns the complete, always-valid fallback document.
// It is the source of replacement values during repair. Callers receive
// a fresh copy on every call and may mutate it freely.
func DefaultDocument() map[string]any {
	return map[string]any{
		"projectName":    "untitled",
		"projectLicense": "MIT",
		"packageManager": "npm",
		"framework":      "none",
		"features":       []any{"lint", "format"},
		"formatting": map[string]any{
			"indentStyle": "space",
			"indentSize":  2,
			"lineWidth":   100,
			"semicolons":  true,
		},
		"paths": map[string]any{
			"source": "src",
			"output": "dist",
			"tests":  "tests",
		},
		"_version": SchemaVersion,
	}
}

// AllowedTopLevelKeys returns the fixed allow-list of schema-recognized
// top-level field names, in declaration order. Migration imports discard
// everything outside this list.
func AllowedTopLevelKeys(s *schema.Schema) []string {
	return s.PropertyNames()
}
