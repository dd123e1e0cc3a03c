package config

import (
	"fmt"
	"sort"

	"github.com/dshills/reconfig/internal/config/layer"
)

// Version represents a document format version.
type Version struct {
	Major int
	Minor int
	Patch int
}

// String returns the version as a string.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare compares two versions.
// Returns -1 if v < other, 0 if v == other, 1 if v > other.
func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		if v.Major < other.Major {
			return -1
		}
		return 1
	}
	if v.Minor != other.Minor {
		if v.Minor < other.Minor {
			return -1
		}
		return 1
	}
	if v.Patch != other.Patch {
		if v.Patch < other.Patch {
			return -1
		}
		return 1
	}
	return 0
}

// Migration transforms a document from one format version to another.
type Migration struct {
	// FromVersion is the source version.
	FromVersion Version

	// ToVersion is the target version.
	ToVersion Version

	// Description describes what the migration does.
	Description string

	// Migrate performs the migration on the document.
	Migrate func(data map[string]any) (map[string]any, error)
}

// Migrator upgrades documents written by older releases to the current
// format version before they are validated.
type Migrator struct {
	migrations []Migration
	current    Version
}

// NewMigrator creates a Migrator targeting the given current version.
func NewMigrator(current Version) *Migrator {
	return &Migrator{
		current:    current,
		migrations: make([]Migration, 0),
	}
}

// CurrentVersion returns the version migrations upgrade to.
func (m *Migrator) CurrentVersion() Version {
	return m.current
}

// Register adds a migration to the migrator.
func (m *Migrator) Register(migration Migration) {
	m.migrations = append(m.migrations, migration)
	sort.Slice(m.migrations, func(i, j int) bool {
		return m.migrations[i].FromVersion.Compare(m.migrations[j].FromVersion) < 0
	})
}

// NeedsMigration checks whether the document predates the current version.
func (m *Migrator) NeedsMigration(data map[string]any) bool {
	return m.extractVersion(data).Compare(m.current) < 0
}

// Migrate applies every necessary migration to bring the document up to
// the current version and stamps the resulting version into the document.
func (m *Migrator) Migrate(data map[string]any) (map[string]any, []MigrationResult, error) {
	fromVersion := m.extractVersion(data)
	results := make([]MigrationResult, 0)

	for _, migration := range m.migrations {
		if migration.FromVersion.Compare(fromVersion) < 0 {
			continue
		}
		if migration.ToVersion.Compare(m.current) > 0 {
			continue
		}

		migrated, err := migration.Migrate(data)
		result := MigrationResult{
			FromVersion: migration.FromVersion,
			ToVersion:   migration.ToVersion,
			Description: migration.Description,
		}

		if err != nil {
			result.Error = err
			results = append(results, result)
			return data, results, fmt.Errorf("migration from %s to %s failed: %w",
				migration.FromVersion, migration.ToVersion, err)
		}

		result.Success = true
		results = append(results, result)
		data = migrated
		fromVersion = migration.ToVersion
	}

	data["_version"] = m.current.String()

	return data, results, nil
}

// MigrationResult contains the result of a single migration.
type MigrationResult struct {
	FromVersion Version
	ToVersion   Version
	Description string
	Success     bool
	Error       error
}

// extractVersion reads the version stamp from a document.
// An unstamped document is treated as version 0.0.0.
func (m *Migrator) extractVersion(data map[string]any) Version {
	vStr, ok := data["_version"].(string)
	if !ok {
		return Version{}
	}

	var v Version
	_, _ = fmt.Sscanf(vStr, "%d.%d.%d", &v.Major, &v.Minor, &v.Patch)
	return v
}

// DefaultMigrator returns a migrator targeting the current schema version
// with the standard upgrade path registered.
func DefaultMigrator() *Migrator {
	m := NewMigrator(Version{Major: 1, Minor: 0, Patch: 0})

	m.Register(MigrationRename(
		Version{}, Version{Major: 1, Minor: 0, Patch: 0},
		"name", "projectName",
		"rename top-level name field to projectName"))

	return m
}

// MigrationRename creates a migration that renames a document path.
func MigrationRename(from, to Version, oldPath, newPath, description string) Migration {
	return Migration{
		FromVersion: from,
		ToVersion:   to,
		Description: description,
		Migrate: func(data map[string]any) (map[string]any, error) {
			value, found := layer.GetByPath(data, oldPath)
			if !found {
				return data, nil // Nothing to migrate
			}

			layer.SetByPath(data, newPath, value)
			layer.DeleteByPath(data, oldPath)
			return data, nil
		},
	}
}

// MigrationTransform creates a migration that transforms a value at a path.
func MigrationTransform(from, to Version, path, description string, transform func(any) (any, error)) Migration {
	return Migration{
		FromVersion: from,
		ToVersion:   to,
		Description: description,
		Migrate: func(data map[string]any) (map[string]any, error) {
			value, found := layer.GetByPath(data, path)
			if !found {
				return data, nil // Nothing to transform
			}

			newValue, err := transform(value)
			if err != nil {
				return nil, fmt.Errorf("transforming %s: %w", path, err)
			}

			layer.SetByPath(data, path, newValue)
			return data, nil
		},
	}
}

// MigrationDelete creates a migration that deletes a document path.
func MigrationDelete(from, to Version, path, description string) Migration {
	return Migration{
		FromVersion: from,
		ToVersion:   to,
		Description: description,
		Migrate: func(data map[string]any) (map[string]any, error) {
			layer.DeleteByPath(data, path)
			return data, nil
		},
	}
}
