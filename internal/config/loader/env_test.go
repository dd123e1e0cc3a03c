package loader

import (
	"reflect"
	"testing"
)

func TestEnvLoaderMappedVariables(t *testing.T) {
	t.Setenv("RECONFIG_PACKAGE_MANAGER", "pnpm")
	t.Setenv("RECONFIG_INDENT_SIZE", "4")

	config, err := NewEnvLoader("RECONFIG_").Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if config["packageManager"] != "pnpm" {
		t.Errorf("packageManager = %v", config["packageManager"])
	}
	formatting, ok := config["formatting"].(map[string]any)
	if !ok || formatting["indentSize"] != int64(4) {
		t.Errorf("formatting = %v", config["formatting"])
	}
}

func TestEnvLoaderUnmappedPrefixed(t *testing.T) {
	t.Setenv("RECONFIG_EXTRA_CACHE_DIR", "/tmp/cache")

	config, err := NewEnvLoader("RECONFIG_").Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	extra, ok := config["extra"].(map[string]any)
	if !ok || extra["cacheDir"] != "/tmp/cache" {
		t.Errorf("extra = %v", config["extra"])
	}
}

func TestEnvToPath(t *testing.T) {
	l := NewEnvLoader("RECONFIG_")
	tests := []struct {
		env  string
		want string
	}{
		{"RECONFIG_FORMATTING_INDENT_SIZE", "formatting.indentSize"},
		{"RECONFIG_FRAMEWORK", "framework"},
		{"RECONFIG_PATHS_SOURCE_DIR", "paths.sourceDir"},
	}
	for _, tt := range tests {
		if got := l.envToPath(tt.env); got != tt.want {
			t.Errorf("envToPath(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestParseValue(t *testing.T) {
	l := NewEnvLoader("RECONFIG_")
	tests := []struct {
		input string
		want  any
	}{
		{"true", true},
		{"off", false},
		{"42", int64(42)},
		{"3.5", 3.5},
		{"hello", "hello"},
		{"", ""},
		{`["lint","test"]`, []any{"lint", "test"}},
	}
	for _, tt := range tests {
		got := l.parseValue(tt.input)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseValue(%q) = %v (%T), want %v (%T)", tt.input, got, got, tt.want, tt.want)
		}
	}
}
