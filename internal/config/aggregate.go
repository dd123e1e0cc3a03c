package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/reconfig/internal/config/loader"
	"github.com/dshills/reconfig/internal/config/repair"
)

// Document is one aggregated configuration file.
type Document struct {
	// Name is the file name without directory.
	Name string
	// Path is the full file path.
	Path string
	// Data is the validated document content.
	Data map[string]any
}

// configExtensions lists the file extensions the aggregator recognizes.
var configExtensions = map[string]bool{
	".json": true,
	".toml": true,
	".yaml": true,
	".yml":  true,
}

// ReadAll discovers configuration files in dir and reads each one
// independently and concurrently. Files that cannot be recovered are
// dropped with a diagnostic; one bad file never aborts the batch.
// Results are ordered by file name.
func (e *Engine) ReadAll(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &IOError{Op: "list", Path: dir, Err: err}
	}

	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if configExtensions[strings.ToLower(filepath.Ext(name))] {
			candidates = append(candidates, name)
		}
	}

	var (
		mu   sync.Mutex
		docs []Document
		wg   sync.WaitGroup
	)

	for _, name := range candidates {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()

			path := filepath.Join(dir, name)
			data, err := e.readAny(path)
			if err != nil {
				e.logger.Warn("config document skipped", "path", path, "error", err)
				return
			}
			if data == nil {
				return
			}

			mu.Lock()
			docs = append(docs, Document{Name: name, Path: path, Data: data})
			mu.Unlock()
		}(name)
	}
	wg.Wait()

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Name < docs[j].Name
	})
	return docs, nil
}

// readAny reads one file by extension. JSON documents go through the
// full recovery ladder including persistence of repairs; TOML and YAML
// documents are repaired in memory only, since the persistence format
// is annotated JSON.
func (e *Engine) readAny(path string) (map[string]any, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return e.Read(path)
	case ".toml":
		return e.readForeign(loader.NewTOMLLoader(path))
	case ".yaml", ".yml":
		return e.readForeign(loader.NewYAMLLoader(path))
	default:
		return nil, nil
	}
}

// readForeign validates and, if needed, repairs a non-JSON document
// without writing anything back.
func (e *Engine) readForeign(l loader.Loader) (map[string]any, error) {
	doc, err := l.Load()
	if err != nil {
		return nil, err
	}
	if len(doc) == 0 {
		return nil, nil
	}

	if verrs := e.validate(doc); verrs == nil {
		return doc, nil
	}

	res := repair.Repair(doc, e.defaults, e.schema)
	if verrs := e.validate(res.Fixed); verrs != nil {
		return nil, verrs.AsError()
	}
	return res.Fixed, nil
}
