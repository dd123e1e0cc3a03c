package loader

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

// EnvLoader builds a configuration overlay from environment variables.
// Variables with well-known names map through a fixed table; any other
// variable carrying the prefix is converted to a dotted path by name.
type EnvLoader struct {
	prefix  string
	mapping map[string]string
}

// NewEnvLoader creates a loader for variables carrying prefix, which
// should include the trailing underscore (e.g. "RECONFIG_").
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix: prefix,
		mapping: map[string]string{
			prefix + "PROJECT_NAME":    "projectName",
			prefix + "PROJECT_LICENSE": "projectLicense",
			prefix + "PACKAGE_MANAGER": "packageManager",
			prefix + "FRAMEWORK":       "framework",
			prefix + "INDENT_STYLE":    "formatting.indentStyle",
			prefix + "INDENT_SIZE":     "formatting.indentSize",
		},
	}
}

// NewEnvLoaderWithMapping creates a loader with a custom name table.
func NewEnvLoaderWithMapping(prefix string, mapping map[string]string) *EnvLoader {
	return &EnvLoader{prefix: prefix, mapping: mapping}
}

// Load reads the process environment into a nested configuration map.
// A set-but-empty variable is an empty string value, not unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for env, path := range l.mapping {
		if val, ok := os.LookupEnv(env); ok {
			setByPath(config, path, l.parseValue(val))
		}
	}

	for _, entry := range os.Environ() {
		name, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		if _, mapped := l.mapping[name]; mapped {
			continue
		}
		setByPath(config, l.envToPath(name), l.parseValue(value))
	}

	return config, nil
}

// envToPath converts an unmapped variable name to a dotted path: the
// first underscore-separated word becomes the section, the rest join
// into a camelCase setting (RECONFIG_FORMATTING_INDENT_SIZE becomes
// formatting.indentSize).
func (l *EnvLoader) envToPath(env string) string {
	words := strings.Split(strings.TrimPrefix(env, l.prefix), "_")

	section := strings.ToLower(words[0])
	if len(words) == 1 {
		return section
	}

	var setting strings.Builder
	setting.WriteString(strings.ToLower(words[1]))
	for _, w := range words[2:] {
		if w == "" {
			continue
		}
		setting.WriteString(strings.ToUpper(w[:1]))
		setting.WriteString(strings.ToLower(w[1:]))
	}
	return section + "." + setting.String()
}

// parseValue coerces a variable's string value: booleans
// (true/yes/on, false/no/off, deliberately not "1"/"0" which stay
// numeric), integers, dotted floats, JSON arrays and objects, and
// finally the raw string.
func (l *EnvLoader) parseValue(s string) any {
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}

	return s
}

// setByPath writes value at a dot-separated path, creating
// intermediate maps as needed.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
