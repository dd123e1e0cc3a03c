// Package persist writes configuration documents to disk safely.
//
// Every write validates the document first, serializes it in stable key
// order, annotates known fields with comments, and commits through a
// backup plus temp-file-and-rename sequence. A crash at any point leaves
// either the old document or the new one on disk, never a partial file.
package persist

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tidwall/pretty"

	"github.com/dshills/reconfig/internal/config/schema"
)

const (
	backupSuffix = ".bak"
	tempSuffix   = ".tmp"

	filePerm = 0o644
)

// Writer persists configuration documents for a single schema.
type Writer struct {
	schema   *schema.Schema
	comments map[string]string
}

// Option configures a Writer.
type Option func(*Writer)

// WithComments sets the top-level key annotations written into documents.
func WithComments(comments map[string]string) Option {
	return func(w *Writer) {
		w.comments = comments
	}
}

// NewWriter creates a writer that validates documents against s before
// any disk activity.
func NewWriter(s *schema.Schema, opts ...Option) *Writer {
	w := &Writer{
		schema:   s,
		comments: DefaultComments(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// BackupPath returns the backup location for a document path.
func BackupPath(path string) string {
	return path + backupSuffix
}

// TempPath returns the staging location for a document path.
func TempPath(path string) string {
	return path + tempSuffix
}

// Write validates doc and commits it to path atomically.
// The sequence is: validate, serialize, annotate, back up the current
// file, write a temp file in the same directory, rename it over path,
// then remove the backup. On failure the original file is restored from
// the backup and the original error is returned.
func (w *Writer) Write(path string, doc map[string]any) error {
	validator := schema.NewValidator(w.schema).
		WithStrictMode(true).
		WithCollectAllErrors(true)
	if err := validator.Validate(doc); err != nil {
		return fmt.Errorf("refusing to persist invalid document: %w", err)
	}

	data, err := Serialize(doc)
	if err != nil {
		return err
	}
	data = Annotate(data, w.comments)

	return commit(path, data)
}

// Serialize renders a document as indented JSON with sorted keys so that
// semantically equal documents always produce identical bytes.
func Serialize(doc map[string]any) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serializing config: %w", err)
	}

	opts := &pretty.Options{
		Indent:   "  ",
		SortKeys: true,
	}
	out := pretty.PrettyOptions(raw, opts)
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	return out, nil
}

// commit performs the backup, temp write, rename, cleanup sequence.
func commit(path string, data []byte) (err error) {
	backup := BackupPath(path)
	tmp := TempPath(path)

	hasBackup := false
	if _, statErr := os.Stat(path); statErr == nil {
		if copyErr := copyFile(path, backup); copyErr != nil {
			return fmt.Errorf("creating backup %s: %w", backup, copyErr)
		}
		hasBackup = true
	}

	defer func() {
		// Remove a dangling temp file regardless of outcome.
		os.Remove(tmp)
		if err == nil {
			if hasBackup {
				os.Remove(backup)
			}
			return
		}
		if hasBackup {
			// The rename never landed or destroyed the target. Put the
			// previous document back.
			if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
				_ = os.Rename(backup, path)
			}
		}
	}()

	if err = os.WriteFile(tmp, data, filePerm); err != nil {
		return fmt.Errorf("writing temp file %s: %w", tmp, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// RestoreBackup replaces path with its backup file if one exists.
// Returns true when a backup was restored.
func RestoreBackup(path string) (bool, error) {
	backup := BackupPath(path)
	if _, err := os.Stat(backup); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("checking backup %s: %w", backup, err)
	}

	if err := os.Rename(backup, path); err != nil {
		return false, fmt.Errorf("restoring backup %s: %w", backup, err)
	}
	return true, nil
}

// copyFile copies src to dst in the same directory, preserving contents
// but not metadata.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

// EnsureDir creates the parent directory for path if it does not exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
