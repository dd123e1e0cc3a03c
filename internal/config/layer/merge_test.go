package layer

import (
	"reflect"
	"sort"
	"testing"
)

func TestDeepMerge(t *testing.T) {
	tests := []struct {
		name string
		dst  map[string]any
		src  map[string]any
		want map[string]any
	}{
		{
			name: "empty src leaves dst",
			dst:  map[string]any{"a": 1},
			src:  map[string]any{},
			want: map[string]any{"a": 1},
		},
		{
			name: "scalar override",
			dst:  map[string]any{"projectName": "old"},
			src:  map[string]any{"projectName": "new"},
			want: map[string]any{"projectName": "new"},
		},
		{
			name: "nested maps merge recursively",
			dst: map[string]any{
				"formatting": map[string]any{"indentStyle": "space", "indentSize": 2},
			},
			src: map[string]any{
				"formatting": map[string]any{"indentSize": 4},
			},
			want: map[string]any{
				"formatting": map[string]any{"indentStyle": "space", "indentSize": 4},
			},
		},
		{
			name: "arrays replace not merge",
			dst:  map[string]any{"features": []any{"a", "b", "c"}},
			src:  map[string]any{"features": []any{"d"}},
			want: map[string]any{"features": []any{"d"}},
		},
		{
			name: "nil src value leaves dst untouched",
			dst:  map[string]any{"packageManager": "pnpm"},
			src:  map[string]any{"packageManager": nil},
			want: map[string]any{"packageManager": "pnpm"},
		},
		{
			name: "map replaces scalar",
			dst:  map[string]any{"paths": "src"},
			src:  map[string]any{"paths": map[string]any{"source": "src"}},
			want: map[string]any{"paths": map[string]any{"source": "src"}},
		},
		{
			name: "scalar replaces map",
			dst:  map[string]any{"paths": map[string]any{"source": "src"}},
			src:  map[string]any{"paths": "lib"},
			want: map[string]any{"paths": "lib"},
		},
		{
			name: "new keys added",
			dst:  map[string]any{"a": 1},
			src:  map[string]any{"b": 2},
			want: map[string]any{"a": 1, "b": 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeepMerge(tt.dst, tt.src)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DeepMerge() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeepMergePreservesSiblingOverrides(t *testing.T) {
	base := map[string]any{
		"a": map[string]any{"b": 1, "c": 2},
		"d": 3,
	}
	override := map[string]any{
		"a": map[string]any{"b": 5},
	}

	got := DeepMerge(Clone(base), override)

	want := map[string]any{
		"a": map[string]any{"b": 5, "c": 2},
		"d": 3,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DeepMerge() = %v, want %v", got, want)
	}
}

func TestDeepMergeDoesNotAliasSource(t *testing.T) {
	src := map[string]any{
		"formatting": map[string]any{"indentSize": 4},
		"features":   []any{"lint"},
	}
	got := DeepMerge(map[string]any{}, src)

	got["formatting"].(map[string]any)["indentSize"] = 8
	got["features"].([]any)[0] = "test"

	if src["formatting"].(map[string]any)["indentSize"] != 4 {
		t.Error("merged map aliases source nested map")
	}
	if src["features"].([]any)[0] != "lint" {
		t.Error("merged map aliases source slice")
	}
}

func TestClone(t *testing.T) {
	original := map[string]any{
		"name": "demo",
		"nested": map[string]any{
			"list": []any{1, 2, map[string]any{"k": "v"}},
		},
	}

	cloned := Clone(original)
	if !reflect.DeepEqual(cloned, original) {
		t.Fatal("clone differs from original")
	}

	cloned["nested"].(map[string]any)["list"].([]any)[2].(map[string]any)["k"] = "changed"
	if original["nested"].(map[string]any)["list"].([]any)[2].(map[string]any)["k"] != "v" {
		t.Error("mutating clone affected original")
	}

	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
}

func TestGetByPath(t *testing.T) {
	data := map[string]any{
		"formatting": map[string]any{
			"indentSize": 2,
		},
		"projectName": "demo",
	}

	tests := []struct {
		path   string
		want   any
		wantOK bool
	}{
		{"projectName", "demo", true},
		{"formatting.indentSize", 2, true},
		{"formatting.missing", nil, false},
		{"projectName.nested", nil, false},
		{"missing", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := GetByPath(data, tt.path)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("GetByPath(%q) = (%v, %v), want (%v, %v)", tt.path, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSetByPath(t *testing.T) {
	data := map[string]any{}
	SetByPath(data, "formatting.indentSize", 4)
	SetByPath(data, "projectName", "demo")

	if got, _ := GetByPath(data, "formatting.indentSize"); got != 4 {
		t.Errorf("got %v, want 4", got)
	}
	if got, _ := GetByPath(data, "projectName"); got != "demo" {
		t.Errorf("got %v, want demo", got)
	}

	// Overwriting a scalar with a nested path replaces it
	SetByPath(data, "projectName.sub", true)
	if got, _ := GetByPath(data, "projectName.sub"); got != true {
		t.Errorf("got %v, want true", got)
	}
}

func TestDeleteByPath(t *testing.T) {
	data := map[string]any{
		"a": map[string]any{"b": 1, "c": 2},
	}

	if !DeleteByPath(data, "a.b") {
		t.Error("expected delete to succeed")
	}
	if _, ok := GetByPath(data, "a.b"); ok {
		t.Error("a.b still present after delete")
	}
	if _, ok := GetByPath(data, "a.c"); !ok {
		t.Error("sibling a.c was removed")
	}
	if DeleteByPath(data, "a.missing") {
		t.Error("expected delete of missing key to fail")
	}
	if DeleteByPath(data, "x.y") {
		t.Error("expected delete through missing parent to fail")
	}
}

func TestFlattenUnflatten(t *testing.T) {
	nested := map[string]any{
		"a": map[string]any{"b": 1, "c": map[string]any{"d": 2}},
		"e": "top",
	}

	flat := FlattenMap(nested)
	want := map[string]any{"a.b": 1, "a.c.d": 2, "e": "top"}
	if !reflect.DeepEqual(flat, want) {
		t.Errorf("FlattenMap() = %v, want %v", flat, want)
	}

	round := UnflattenMap(flat)
	if !reflect.DeepEqual(round, nested) {
		t.Errorf("UnflattenMap() = %v, want %v", round, nested)
	}
}

func TestDiffMaps(t *testing.T) {
	old := map[string]any{
		"a": 1,
		"b": map[string]any{"c": 2},
		"d": "gone",
	}
	new := map[string]any{
		"a": 1,
		"b": map[string]any{"c": 3},
		"e": "fresh",
	}

	added, modified, removed := DiffMaps(old, new)
	sort.Strings(added)
	sort.Strings(modified)
	sort.Strings(removed)

	if !reflect.DeepEqual(added, []string{"e"}) {
		t.Errorf("added = %v", added)
	}
	if !reflect.DeepEqual(modified, []string{"b.c"}) {
		t.Errorf("modified = %v", modified)
	}
	if !reflect.DeepEqual(removed, []string{"d"}) {
		t.Errorf("removed = %v", removed)
	}
}
