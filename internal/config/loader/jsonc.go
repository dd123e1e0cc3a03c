package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JSONCLoader loads configuration from JSON files that may contain
// line and block comments. Comments are stripped before decoding so
// annotated documents written by the persistence layer stay readable.
type JSONCLoader struct {
	fs   FileSystem
	path string
}

// NewJSONCLoader creates a new JSONC loader for the given path.
func NewJSONCLoader(path string) *JSONCLoader {
	return &JSONCLoader{
		fs:   DefaultFS(),
		path: path,
	}
}

// NewJSONCLoaderWithFS creates a JSONC loader with a custom file system.
func NewJSONCLoaderWithFS(fs FileSystem, path string) *JSONCLoader {
	return &JSONCLoader{
		fs:   fs,
		path: path,
	}
}

// Load reads configuration from the configured path.
func (l *JSONCLoader) Load() (map[string]any, error) {
	return l.LoadFrom(l.path)
}

// LoadFrom reads configuration from a specific path.
func (l *JSONCLoader) LoadFrom(path string) (map[string]any, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // File doesn't exist, not an error
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	return l.parse(path, data)
}

// LoadFromReader reads configuration from an io.Reader.
func (l *JSONCLoader) LoadFromReader(r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return l.parse("<reader>", data)
}

// parse strips comments and decodes JSON data into a map. Blank input
// is an empty document, not a parse failure.
func (l *JSONCLoader) parse(source string, data []byte) (map[string]any, error) {
	stripped := StripComments(data)
	if len(bytes.TrimSpace(stripped)) == 0 {
		return nil, nil
	}

	var config map[string]any
	if err := json.Unmarshal(stripped, &config); err != nil {
		return nil, &ParseError{
			Path:    source,
			Message: err.Error(),
			Err:     err,
		}
	}

	return config, nil
}

// StripComments removes // line comments and /* */ block comments from
// JSON data, leaving string literals intact. Comment bytes are replaced
// with spaces (newlines preserved) so decode error positions still map
// back to the original document.
func StripComments(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)

	const (
		stateCode = iota
		stateString
		stateLineComment
		stateBlockComment
	)

	state := stateCode
	for i := 0; i < len(out); i++ {
		c := out[i]
		switch state {
		case stateCode:
			switch {
			case c == '"':
				state = stateString
			case c == '/' && i+1 < len(out) && out[i+1] == '/':
				state = stateLineComment
				out[i] = ' '
			case c == '/' && i+1 < len(out) && out[i+1] == '*':
				state = stateBlockComment
				out[i] = ' '
			}
		case stateString:
			if c == '\\' {
				i++ // skip escaped character
			} else if c == '"' {
				state = stateCode
			}
		case stateLineComment:
			if c == '\n' {
				state = stateCode
			} else {
				out[i] = ' '
			}
		case stateBlockComment:
			if c == '*' && i+1 < len(out) && out[i+1] == '/' {
				out[i] = ' '
				out[i+1] = ' '
				i++
				state = stateCode
			} else if c != '\n' {
				out[i] = ' '
			}
		}
	}

	return out
}
