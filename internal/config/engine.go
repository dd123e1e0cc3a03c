package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dshills/reconfig/internal/config/layer"
	"github.com/dshills/reconfig/internal/config/loader"
	"github.com/dshills/reconfig/internal/config/notify"
	"github.com/dshills/reconfig/internal/config/persist"
	"github.com/dshills/reconfig/internal/config/repair"
	"github.com/dshills/reconfig/internal/config/schema"
	"github.com/dshills/reconfig/internal/config/watcher"
)

// Engine reconciles configuration documents against a schema.
// The zero value is not usable; construct with New.
type Engine struct {
	schema   *schema.Schema
	defaults map[string]any
	detected map[string]any
	writer   *persist.Writer
	notifier *notify.Notifier
	migrator *Migrator
	logger   *slog.Logger

	envPrefix string
}

// Option configures an Engine.
type Option func(*Engine)

// WithSchema overrides the default schema.
func WithSchema(s *schema.Schema) Option {
	return func(e *Engine) { e.schema = s }
}

// WithDefaults overrides the default fallback document.
func WithDefaults(doc map[string]any) Option {
	return func(e *Engine) { e.defaults = layer.Clone(doc) }
}

// WithDetected supplies environment-detected partial fields that layer
// under user-supplied values.
func WithDetected(doc map[string]any) Option {
	return func(e *Engine) { e.detected = layer.Clone(doc) }
}

// WithNotifier routes change diagnostics through the given notifier.
func WithNotifier(n *notify.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithMigrator applies version migrations to documents before validation.
func WithMigrator(m *Migrator) Option {
	return func(e *Engine) { e.migrator = m }
}

// WithLogger sets the structured logger for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithEnvPrefix enables an environment variable overlay with the given
// prefix (e.g. "RECONFIG_") in Effective.
func WithEnvPrefix(prefix string) Option {
	return func(e *Engine) { e.envPrefix = prefix }
}

// New creates an engine with the default schema and fallback document.
func New(opts ...Option) *Engine {
	e := &Engine{
		schema:   DefaultSchema(),
		defaults: DefaultDocument(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.writer = persist.NewWriter(e.schema)
	return e
}

// Schema returns the schema documents are reconciled against.
func (e *Engine) Schema() *schema.Schema {
	return e.schema
}

// Defaults returns a copy of the fallback document.
func (e *Engine) Defaults() map[string]any {
	return layer.Clone(e.defaults)
}

// Read loads the document at path, walking the recovery ladder until a
// valid document is produced.
//
// Returns nil, nil when the file is absent or empty. Returns a document
// and nil error when any recovery layer succeeds. Returns an error
// wrapping ErrUnrecoverable when every layer is exhausted; callers must
// then fall back to Defaults.
func (e *Engine) Read(path string) (map[string]any, error) {
	doc, err := loader.NewJSONCLoader(path).Load()
	if err != nil {
		var perr *loader.ParseError
		if !errors.As(err, &perr) {
			return nil, err
		}
		// Unparsable content cannot be repaired field by field. Jump
		// straight to the backup.
		e.logger.Warn("config unparsable", "path", path, "error", err)
		return e.restoreFromBackup(path)
	}
	if len(doc) == 0 {
		return nil, nil
	}

	if e.migrator != nil && e.migrator.NeedsMigration(doc) {
		migrated, results, merr := e.migrator.Migrate(doc)
		if merr != nil {
			e.logger.Warn("config migration failed", "path", path, "error", merr)
		} else {
			for _, r := range results {
				e.logger.Info("config migrated",
					"path", path, "from", r.FromVersion.String(), "to", r.ToVersion.String())
			}
			doc = migrated
		}
	}

	// Layer 1: accept as-is.
	if verrs := e.validate(doc); verrs == nil {
		return doc, nil
	}

	// Layer 2: merge under defaults. Handles fields added to the schema
	// since the document was last written.
	merged := layer.DeepMerge(layer.Clone(e.defaults), doc)
	if verrs := e.validate(merged); verrs == nil {
		if err := e.persist(path, merged); err != nil {
			return nil, err
		}
		added, _, _ := layer.DiffMaps(doc, merged)
		for _, p := range added {
			e.emit(notify.Change{Path: p, Type: notify.ChangeFilled, Source: path})
		}
		e.logger.Info("config completed from defaults", "path", path, "filled", len(added))
		return merged, nil
	}

	// Layer 3: field-by-field repair.
	res := repair.Repair(doc, e.defaults, e.schema)
	if verrs := e.validate(res.Fixed); verrs == nil {
		if err := e.persist(path, res.Fixed); err != nil {
			return nil, err
		}
		for _, c := range res.Changes {
			e.emit(notify.Change{Path: c.Path, Type: changeType(c.Reason), Source: path})
			e.logger.Info("config field repaired", "path", path, "field", c.Path, "reason", string(c.Reason))
		}
		return res.Fixed, nil
	}

	// Layer 4: restore from backup.
	return e.restoreFromBackup(path)
}

// Write validates doc and commits it to path atomically.
func (e *Engine) Write(path string, doc map[string]any) error {
	return e.persist(path, doc)
}

// Effective resolves the fully layered document for path: builtin
// defaults, detected environment fields, the on-disk document, and an
// optional environment variable overlay, in increasing priority.
func (e *Engine) Effective(path string) (map[string]any, error) {
	m := layer.NewManager()
	m.Add(layer.NewLayer(layer.SourceBuiltin, "defaults", e.defaults))
	if e.detected != nil {
		m.Add(layer.NewLayer(layer.SourceDetected, "detected", e.detected))
	}

	doc, err := e.Read(path)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		m.Add(layer.NewLayer(layer.SourceDocument, path, doc))
	}

	if e.envPrefix != "" {
		env, err := loader.NewEnvLoader(e.envPrefix).Load()
		if err == nil && len(env) > 0 {
			m.Add(layer.NewLayer(layer.SourceEnv, "env", env))
		}
	}

	return m.Merge(), nil
}

// Watch re-reads path whenever it changes on disk and announces the
// reload through the notifier. The caller owns the returned watcher and
// must Close it.
func (e *Engine) Watch(path string) (*watcher.Watcher, error) {
	w, err := watcher.New(func(ev watcher.Event) {
		if ev.Op != watcher.OpWrite {
			return
		}
		if _, err := e.Read(ev.Path); err != nil {
			e.logger.Warn("config reload failed", "path", ev.Path, "error", err)
			return
		}
		e.emit(notify.Change{Type: notify.ChangeReloaded, Source: ev.Path})
	})
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

// restoreFromBackup recovers path from its backup sibling if the backup
// parses and validates.
func (e *Engine) restoreFromBackup(path string) (map[string]any, error) {
	backup := persist.BackupPath(path)
	doc, err := loader.NewJSONCLoader(backup).Load()
	if err != nil || len(doc) == 0 {
		return nil, fmt.Errorf("read %s: %w", path, ErrUnrecoverable)
	}
	if verrs := e.validate(doc); verrs != nil {
		return nil, fmt.Errorf("read %s: %w", path, ErrUnrecoverable)
	}

	if _, err := persist.RestoreBackup(path); err != nil {
		return nil, &IOError{Op: "restore", Path: path, Err: err}
	}
	e.emit(notify.Change{Type: notify.ChangeRestored, Source: path})
	e.logger.Warn("config restored from backup", "path", path)
	return doc, nil
}

// validate runs strict, exhaustive validation and returns nil for a
// valid document.
func (e *Engine) validate(doc map[string]any) *schema.ValidationErrors {
	v := schema.NewValidator(e.schema).
		WithStrictMode(true).
		WithCollectAllErrors(true)
	err := v.Validate(doc)
	if err == nil {
		return nil
	}
	var verrs *schema.ValidationErrors
	if !errors.As(err, &verrs) {
		verrs = &schema.ValidationErrors{}
		verrs.Add("", err.Error())
	}
	e.logger.Debug("config invalid", "fields", verrs.Paths())
	return verrs
}

func (e *Engine) persist(path string, doc map[string]any) error {
	err := e.writer.Write(path, doc)
	if err == nil {
		return nil
	}
	var verrs *schema.ValidationErrors
	if errors.As(err, &verrs) {
		return &SchemaViolation{Path: path, Errors: verrs}
	}
	return fmt.Errorf("persisting %s: %w", path, err)
}

func (e *Engine) emit(c notify.Change) {
	if e.notifier != nil {
		e.notifier.Notify(c)
	}
}

// changeType maps a repair reason onto a notification change type.
func changeType(r repair.Reason) notify.ChangeType {
	switch r {
	case repair.ReasonMissing:
		return notify.ChangeFilled
	case repair.ReasonDropped:
		return notify.ChangeDropped
	default:
		return notify.ChangeRepaired
	}
}
