package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/reconfig/internal/config/layer"
	"github.com/dshills/reconfig/internal/config/loader"
	"github.com/dshills/reconfig/internal/config/notify"
)

// Import merges the schema-recognized fields of a legacy document at
// legacyPath into the document at currentPath, then deletes the legacy
// file. Unrecognized top-level keys are silently discarded; the schema's
// declared property names form the fixed allow-list.
//
// Returns true only when the merged document was durably written and the
// source file removed. A missing or unparsable legacy file is not an
// error; it simply reports false.
func (e *Engine) Import(legacyPath, currentPath string) (bool, error) {
	raw, err := os.ReadFile(legacyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &IOError{Op: "read", Path: legacyPath, Err: err}
	}

	raw = loader.StripComments(raw)
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsObject() {
		e.logger.Warn("legacy config is not an object, skipping import", "path", legacyPath)
		return false, nil
	}

	// Trim the document down to the allow-list before decoding.
	allowed := make(map[string]bool)
	for _, name := range AllowedTopLevelKeys(e.schema) {
		allowed[name] = true
	}

	var dropped []string
	parsed.ForEach(func(key, _ gjson.Result) bool {
		if !allowed[key.String()] {
			dropped = append(dropped, key.String())
		}
		return true
	})
	for _, key := range dropped {
		raw, err = sjson.DeleteBytes(raw, escapeKey(key))
		if err != nil {
			return false, fmt.Errorf("discarding legacy key %q: %w", key, err)
		}
		e.logger.Info("legacy key discarded", "path", legacyPath, "key", key)
	}

	var incoming map[string]any
	if err := json.Unmarshal(raw, &incoming); err != nil {
		e.logger.Warn("legacy config unparsable, skipping import", "path", legacyPath, "error", err)
		return false, nil
	}
	if len(incoming) == 0 {
		// Nothing recognized. The legacy file stays in place.
		return false, nil
	}

	current, err := e.Read(currentPath)
	if err != nil {
		return false, err
	}
	if current == nil {
		current = e.Defaults()
	}

	merged := layer.DeepMerge(current, incoming)
	if err := e.persist(currentPath, merged); err != nil {
		return false, err
	}

	// Delete the source only after the write has landed.
	if err := os.Remove(legacyPath); err != nil {
		return false, &IOError{Op: "delete", Path: legacyPath, Err: err}
	}

	for key := range incoming {
		e.emit(notify.Change{Path: key, Type: notify.ChangeImported, Source: legacyPath})
	}
	e.logger.Info("legacy config imported",
		"from", legacyPath, "to", currentPath, "fields", len(incoming), "discarded", len(dropped))
	return true, nil
}

// escapeKey quotes sjson path metacharacters so a literal top-level key
// addresses exactly one field.
func escapeKey(key string) string {
	replacer := strings.NewReplacer(
		".", `\.`,
		"*", `\*`,
		"?", `\?`,
		"|", `\|`,
	)
	return replacer.Replace(key)
}
