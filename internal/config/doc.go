// Package config provides the configuration reconciliation engine.
//
// The config package reads, validates, repairs, merges, and durably
// persists structured configuration documents against a declarative
// schema. It tolerates partially-invalid, hand-edited, or stale input,
// heals it field by field without discarding unrelated user data, and
// guarantees the on-disk file is never left corrupt even if the process
// crashes mid-write.
//
// # Recovery Ladder
//
// Reading a document walks a sequence of recovery layers with strictly
// increasing invasiveness. Each layer is tried only if the previous one
// failed to produce a valid document:
//
//	┌─────────────────────────────┐
//	│  1. Accept as-is            │  ← document already validates
//	├─────────────────────────────┤
//	│  2. Merge under defaults    │  ← fills fields added since last write
//	├─────────────────────────────┤
//	│  3. Field-by-field repair   │  ← invalid values replaced, rest kept
//	├─────────────────────────────┤
//	│  4. Restore from backup     │  ← last known-good snapshot
//	├─────────────────────────────┤
//	│  5. Give up                 │  ← caller falls back to defaults
//	└─────────────────────────────┘
//
// # Sub-packages
//
//   - schema: declarative schema tree and exhaustive validation
//   - layer: deep merge and priority-ordered configuration layers
//   - loader: document loading (JSON with comments, TOML, YAML, env vars)
//   - repair: field-by-field document reconciliation
//   - persist: validated, annotated, atomic writes with backup rollback
//   - notify: change notification for repairs, restores, and reloads
//   - watcher: debounced detection of external file modification
//
// # Basic Usage
//
// Read a document with full recovery:
//
//	eng := config.New()
//	doc, err := eng.Read("reconfig.json")
//	if err != nil {
//	    // No layer produced a valid document. Fall back to defaults.
//	    doc = config.DefaultDocument()
//	}
//	if doc == nil {
//	    // File absent or empty. Caller decides whether to create one.
//	}
//
// Every automated correction is reported through the notifier so users
// can audit exactly which fields the engine changed.
package config
