package layer

import "testing"

func TestManagerMergeOrder(t *testing.T) {
	m := NewManager()
	m.Add(NewLayer(SourceBuiltin, "defaults", map[string]any{
		"packageManager": "npm",
		"formatting":     map[string]any{"indentSize": 2, "indentStyle": "space"},
	}))
	m.Add(NewLayer(SourceDocument, "user", map[string]any{
		"packageManager": "pnpm",
	}))
	m.Add(NewLayer(SourceDetected, "probe", map[string]any{
		"packageManager": "yarn",
		"formatting":     map[string]any{"indentSize": 4},
	}))

	merged := m.Merge()

	// Document outranks detected outranks builtin
	if got, _ := GetByPath(merged, "packageManager"); got != "pnpm" {
		t.Errorf("packageManager = %v, want pnpm", got)
	}
	if got, _ := GetByPath(merged, "formatting.indentSize"); got != 4 {
		t.Errorf("formatting.indentSize = %v, want 4", got)
	}
	if got, _ := GetByPath(merged, "formatting.indentStyle"); got != "space" {
		t.Errorf("formatting.indentStyle = %v, want space", got)
	}
}

func TestManagerRemove(t *testing.T) {
	m := NewManager()
	m.Add(NewLayer(SourceBuiltin, "defaults", map[string]any{"a": 1}))
	m.Add(NewLayer(SourceDocument, "user", map[string]any{"a": 2}))

	if got, _ := m.Get("a"); got != 2 {
		t.Fatalf("a = %v, want 2", got)
	}

	if !m.Remove(SourceDocument) {
		t.Fatal("expected Remove to report success")
	}
	if got, _ := m.Get("a"); got != 1 {
		t.Errorf("a = %v after remove, want 1", got)
	}
	if m.Remove(SourceDocument) {
		t.Error("second Remove should report false")
	}
}

func TestManagerMergeIsCopy(t *testing.T) {
	m := NewManager()
	m.Add(NewLayer(SourceBuiltin, "defaults", map[string]any{
		"nested": map[string]any{"k": "v"},
	}))

	first := m.Merge()
	first["nested"].(map[string]any)["k"] = "mutated"

	second := m.Merge()
	if got, _ := GetByPath(second, "nested.k"); got != "v" {
		t.Errorf("merge result shares state across calls: got %v", got)
	}
}

func TestSourceString(t *testing.T) {
	tests := []struct {
		source Source
		want   string
	}{
		{SourceBuiltin, "builtin"},
		{SourceDetected, "detected"},
		{SourceDocument, "document"},
		{SourceEnv, "env"},
		{SourceRuntime, "runtime"},
		{Source(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.source.String(); got != tt.want {
			t.Errorf("Source(%d).String() = %q, want %q", tt.source, got, tt.want)
		}
	}
}
