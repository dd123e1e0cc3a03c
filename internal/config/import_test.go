package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/reconfig/internal/config/layer"
	"github.com/dshills/reconfig/internal/config/notify"
)

func TestImportAllowList(t *testing.T) {
	e := quietEngine()
	dir := t.TempDir()
	current := filepath.Join(dir, "config.json")
	legacy := filepath.Join(dir, "old-config.json")

	writeValid(t, e, current)

	legacyContent := `{
  "unknownField": 1,
  "projectLicense": "Apache-2.0",
  "editorPlugin": {"nested": true}
}`
	if err := os.WriteFile(legacy, []byte(legacyContent), 0o644); err != nil {
		t.Fatal(err)
	}

	ok, err := e.Import(legacy, current)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if !ok {
		t.Fatal("Import() = false, want true")
	}

	doc, err := e.Read(current)
	if err != nil {
		t.Fatal(err)
	}
	if doc["projectLicense"] != "Apache-2.0" {
		t.Errorf("projectLicense = %v, want Apache-2.0", doc["projectLicense"])
	}
	flat := layer.FlattenMap(doc)
	for path := range flat {
		if path == "unknownField" || path == "editorPlugin.nested" {
			t.Errorf("discarded key %q present in result", path)
		}
	}
	// Existing fields untouched by the import survive
	if doc["packageManager"] != "pnpm" {
		t.Errorf("packageManager = %v, want pnpm", doc["packageManager"])
	}

	if _, err := os.Stat(legacy); !os.IsNotExist(err) {
		t.Error("legacy file still exists after confirmed import")
	}
}

func TestImportMissingLegacyFile(t *testing.T) {
	e := quietEngine()
	dir := t.TempDir()

	ok, err := e.Import(filepath.Join(dir, "absent.json"), filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if ok {
		t.Error("Import() = true for missing legacy file")
	}
}

func TestImportUnparsableLegacyKeepsSource(t *testing.T) {
	e := quietEngine()
	dir := t.TempDir()
	legacy := filepath.Join(dir, "old.json")
	if err := os.WriteFile(legacy, []byte("not json at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	ok, err := e.Import(legacy, filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if ok {
		t.Error("Import() = true for unparsable legacy file")
	}
	if _, err := os.Stat(legacy); err != nil {
		t.Error("unparsable legacy file was deleted")
	}
}

func TestImportIntoAbsentCurrentUsesDefaults(t *testing.T) {
	n := notify.New()
	defer n.Close()
	var imported []string
	n.Subscribe(func(c notify.Change) {
		if c.Type == notify.ChangeImported {
			imported = append(imported, c.Path)
		}
	})

	e := quietEngine(WithNotifier(n))
	dir := t.TempDir()
	current := filepath.Join(dir, "config.json")
	legacy := filepath.Join(dir, "old.json")

	if err := os.WriteFile(legacy, []byte(`{"projectName": "carried-over"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	ok, err := e.Import(legacy, current)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if !ok {
		t.Fatal("Import() = false, want true")
	}

	doc, err := e.Read(current)
	if err != nil {
		t.Fatal(err)
	}
	if doc["projectName"] != "carried-over" {
		t.Errorf("projectName = %v", doc["projectName"])
	}
	// Defaults backfill everything the legacy file lacked
	if doc["packageManager"] != "npm" {
		t.Errorf("packageManager = %v, want npm", doc["packageManager"])
	}
	if len(imported) != 1 || imported[0] != "projectName" {
		t.Errorf("imported notifications = %v", imported)
	}
}

func TestImportInvalidLegacyValueFailsWithoutDeleting(t *testing.T) {
	e := quietEngine()
	dir := t.TempDir()
	current := filepath.Join(dir, "config.json")
	legacy := filepath.Join(dir, "old.json")

	writeValid(t, e, current)
	before, _ := os.ReadFile(current)

	if err := os.WriteFile(legacy, []byte(`{"packageManager": "cargo"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	ok, err := e.Import(legacy, current)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if ok {
		t.Error("Import() = true despite failed write")
	}

	after, _ := os.ReadFile(current)
	if string(before) != string(after) {
		t.Error("current document changed after failed import")
	}
	if _, err := os.Stat(legacy); err != nil {
		t.Error("legacy file deleted despite failed write")
	}
}
