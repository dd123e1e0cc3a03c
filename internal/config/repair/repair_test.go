package repair

import (
	"reflect"
	"testing"

	"github.com/dshills/reconfig/internal/config/schema"
)

func testSchema() *schema.Schema {
	return schema.Object().
		Property("projectName", schema.String().MinLength(1).Build()).
		Property("packageManager", schema.StringEnum("npm", "yarn", "pnpm", "bun").Build()).
		Property("features", schema.Array().Items(schema.String().Build()).Build()).
		Property("formatting", schema.Object().
			Property("indentStyle", schema.StringEnum("space", "tab").Build()).
			Property("indentSize", schema.IntRange(1, 8).Build()).
			Required("indentStyle", "indentSize").
			AdditionalProperties(false).
			Build()).
		Required("projectName", "packageManager", "formatting").
		AdditionalProperties(false).
		Build()
}

func testDefaults() map[string]any {
	return map[string]any{
		"projectName":    "untitled",
		"packageManager": "npm",
		"features":       []any{},
		"formatting": map[string]any{
			"indentStyle": "space",
			"indentSize":  2,
		},
	}
}

func TestRepairValidDocumentUnchanged(t *testing.T) {
	candidate := map[string]any{
		"projectName":    "demo",
		"packageManager": "pnpm",
		"features":       []any{"lint"},
		"formatting": map[string]any{
			"indentStyle": "tab",
			"indentSize":  4,
		},
	}

	res := Repair(candidate, testDefaults(), testSchema())
	if res.Changed() {
		t.Fatalf("expected no changes, got %v", res.Changes)
	}
	if !reflect.DeepEqual(res.Fixed, candidate) {
		t.Errorf("Fixed = %v, want %v", res.Fixed, candidate)
	}
}

func TestRepairMissingFields(t *testing.T) {
	candidate := map[string]any{
		"projectName": "demo",
	}

	res := Repair(candidate, testDefaults(), testSchema())

	wantChanges := []Change{
		{Path: "packageManager", Reason: ReasonMissing},
		{Path: "features", Reason: ReasonMissing},
		{Path: "formatting", Reason: ReasonMissing},
	}
	if !reflect.DeepEqual(res.Changes, wantChanges) {
		t.Errorf("Changes = %v, want %v", res.Changes, wantChanges)
	}
	if res.Fixed["packageManager"] != "npm" {
		t.Errorf("packageManager = %v", res.Fixed["packageManager"])
	}
	formatting := res.Fixed["formatting"].(map[string]any)
	if formatting["indentSize"] != 2 {
		t.Errorf("formatting.indentSize = %v", formatting["indentSize"])
	}
}

func TestRepairInvalidLeaf(t *testing.T) {
	candidate := map[string]any{
		"projectName":    "demo",
		"packageManager": "cargo", // not in enum
		"formatting": map[string]any{
			"indentStyle": "space",
			"indentSize":  2,
		},
	}

	res := Repair(candidate, testDefaults(), testSchema())

	if res.Fixed["packageManager"] != "npm" {
		t.Errorf("packageManager = %v, want npm", res.Fixed["packageManager"])
	}
	found := false
	for _, c := range res.Changes {
		if c.Path == "packageManager" && c.Reason == ReasonInvalid {
			found = true
		}
	}
	if !found {
		t.Errorf("expected invalid change for packageManager, got %v", res.Changes)
	}
	// Valid siblings survive
	if res.Fixed["projectName"] != "demo" {
		t.Errorf("projectName = %v, want demo", res.Fixed["projectName"])
	}
}

func TestRepairNestedField(t *testing.T) {
	candidate := map[string]any{
		"projectName":    "demo",
		"packageManager": "yarn",
		"features":       []any{},
		"formatting": map[string]any{
			"indentStyle": "tab",
			"indentSize":  99, // out of range
		},
	}

	res := Repair(candidate, testDefaults(), testSchema())

	formatting := res.Fixed["formatting"].(map[string]any)
	if formatting["indentSize"] != 2 {
		t.Errorf("formatting.indentSize = %v, want 2", formatting["indentSize"])
	}
	if formatting["indentStyle"] != "tab" {
		t.Errorf("formatting.indentStyle = %v, want tab (valid sibling replaced)", formatting["indentStyle"])
	}
	want := []Change{{Path: "formatting.indentSize", Reason: ReasonInvalid}}
	if !reflect.DeepEqual(res.Changes, want) {
		t.Errorf("Changes = %v, want %v", res.Changes, want)
	}
}

func TestRepairObjectReplacedAtomically(t *testing.T) {
	candidate := map[string]any{
		"projectName":    "demo",
		"packageManager": "yarn",
		"features":       []any{},
		"formatting":     "compact", // not an object at all
	}

	res := Repair(candidate, testDefaults(), testSchema())

	formatting, ok := res.Fixed["formatting"].(map[string]any)
	if !ok {
		t.Fatalf("formatting = %v, want object", res.Fixed["formatting"])
	}
	if formatting["indentStyle"] != "space" || formatting["indentSize"] != 2 {
		t.Errorf("formatting = %v, want defaults", formatting)
	}
	want := []Change{{Path: "formatting." + EntireObject, Reason: ReasonInvalid}}
	if !reflect.DeepEqual(res.Changes, want) {
		t.Errorf("Changes = %v, want %v", res.Changes, want)
	}
}

func TestRepairDropsUnknownKeys(t *testing.T) {
	candidate := map[string]any{
		"projectName":    "demo",
		"packageManager": "yarn",
		"features":       []any{},
		"formatting": map[string]any{
			"indentStyle": "space",
			"indentSize":  2,
			"tabWidth":    8, // unknown nested key
		},
		"zeta":  true,
		"alpha": 1,
	}

	res := Repair(candidate, testDefaults(), testSchema())

	if _, ok := res.Fixed["zeta"]; ok {
		t.Error("unknown key zeta survived repair")
	}
	formatting := res.Fixed["formatting"].(map[string]any)
	if _, ok := formatting["tabWidth"]; ok {
		t.Error("unknown nested key tabWidth survived repair")
	}

	want := []Change{
		{Path: "formatting.tabWidth", Reason: ReasonDropped},
		{Path: "alpha", Reason: ReasonDropped},
		{Path: "zeta", Reason: ReasonDropped},
	}
	if !reflect.DeepEqual(res.Changes, want) {
		t.Errorf("Changes = %v, want %v", res.Changes, want)
	}
}

func TestRepairDropsInvalidArrayElements(t *testing.T) {
	candidate := map[string]any{
		"projectName":    "demo",
		"packageManager": "yarn",
		"features":       []any{"lint", 42, "test", false},
		"formatting": map[string]any{
			"indentStyle": "space",
			"indentSize":  2,
		},
	}

	res := Repair(candidate, testDefaults(), testSchema())

	features := res.Fixed["features"].([]any)
	if !reflect.DeepEqual(features, []any{"lint", "test"}) {
		t.Errorf("features = %v, want [lint test]", features)
	}
	want := []Change{
		{Path: "features[1]", Reason: ReasonDropped},
		{Path: "features[3]", Reason: ReasonDropped},
	}
	if !reflect.DeepEqual(res.Changes, want) {
		t.Errorf("Changes = %v, want %v", res.Changes, want)
	}
}

func TestRepairIdempotent(t *testing.T) {
	candidate := map[string]any{
		"projectName":    123,
		"packageManager": "cargo",
		"features":       []any{"ok", 7},
		"formatting":     []any{"broken"},
		"junk":           "drop me",
	}

	first := Repair(candidate, testDefaults(), testSchema())
	if !first.Changed() {
		t.Fatal("expected first repair to make changes")
	}

	second := Repair(first.Fixed, testDefaults(), testSchema())
	if second.Changed() {
		t.Errorf("second repair made changes: %v", second.Changes)
	}
	if !reflect.DeepEqual(second.Fixed, first.Fixed) {
		t.Errorf("second repair altered document: %v vs %v", second.Fixed, first.Fixed)
	}
}

func TestRepairNilCandidate(t *testing.T) {
	res := Repair(nil, testDefaults(), testSchema())
	if len(res.Changes) == 0 {
		t.Fatal("expected changes for nil candidate")
	}
	if res.Fixed["projectName"] != "untitled" {
		t.Errorf("projectName = %v", res.Fixed["projectName"])
	}
}

func TestRepairDoesNotMutateInputs(t *testing.T) {
	candidate := map[string]any{
		"projectName": "demo",
		"junk":        true,
	}
	defaults := testDefaults()

	res := Repair(candidate, defaults, testSchema())

	if _, ok := candidate["packageManager"]; ok {
		t.Error("candidate was mutated")
	}
	res.Fixed["formatting"].(map[string]any)["indentSize"] = 8
	if defaults["formatting"].(map[string]any)["indentSize"] != 2 {
		t.Error("repair result aliases defaults")
	}
}
