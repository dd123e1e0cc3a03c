// Package layer provides priority-ordered configuration layers and the
// deep-merge rules used to combine them into a single effective document.
package layer

// Source identifies where a configuration layer came from.
type Source int

const (
	// SourceBuiltin is the compiled-in default document.
	SourceBuiltin Source = iota
	// SourceDetected holds values probed from the project environment.
	SourceDetected
	// SourceDocument is the user's configuration file on disk.
	SourceDocument
	// SourceEnv holds values taken from process environment variables.
	SourceEnv
	// SourceRuntime holds values set programmatically at runtime.
	SourceRuntime
)

// String returns the name of the source.
func (s Source) String() string {
	switch s {
	case SourceBuiltin:
		return "builtin"
	case SourceDetected:
		return "detected"
	case SourceDocument:
		return "document"
	case SourceEnv:
		return "env"
	case SourceRuntime:
		return "runtime"
	default:
		return "unknown"
	}
}

// Priority returns the merge priority for the source.
// Higher priority layers override lower ones.
func (s Source) Priority() int {
	switch s {
	case SourceBuiltin:
		return 0
	case SourceDetected:
		return 10
	case SourceDocument:
		return 20
	case SourceEnv:
		return 30
	case SourceRuntime:
		return 40
	default:
		return -1
	}
}

// Layer is a single configuration layer with a source and data.
type Layer struct {
	Source Source
	Name   string
	Data   map[string]any
}

// NewLayer creates a layer with cloned data so callers cannot mutate it later.
func NewLayer(source Source, name string, data map[string]any) *Layer {
	return &Layer{
		Source: source,
		Name:   name,
		Data:   Clone(data),
	}
}

// Get retrieves a value from the layer by dot-separated path.
func (l *Layer) Get(path string) (any, bool) {
	return GetByPath(l.Data, path)
}

// Set stores a value in the layer by dot-separated path.
func (l *Layer) Set(path string, value any) {
	if l.Data == nil {
		l.Data = make(map[string]any)
	}
	SetByPath(l.Data, path, value)
}
