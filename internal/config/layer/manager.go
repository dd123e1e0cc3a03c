package layer

import (
	"sort"
	"sync"
)

// Manager holds a set of configuration layers and merges them on demand.
// Merge results are cached until a layer changes.
type Manager struct {
	mu     sync.RWMutex
	layers map[Source]*Layer
	merged map[string]any
	dirty  bool
}

// NewManager creates an empty layer manager.
func NewManager() *Manager {
	return &Manager{
		layers: make(map[Source]*Layer),
		dirty:  true,
	}
}

// Add installs a layer, replacing any existing layer from the same source.
func (m *Manager) Add(l *Layer) {
	if l == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layers[l.Source] = l
	m.dirty = true
}

// Remove deletes the layer for the given source.
// Returns true if a layer was removed.
func (m *Manager) Remove(source Source) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.layers[source]; !ok {
		return false
	}
	delete(m.layers, source)
	m.dirty = true
	return true
}

// Layer returns the layer for the given source, or nil if none is installed.
func (m *Manager) Layer(source Source) *Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.layers[source]
}

// Merge combines all layers in priority order and returns the effective
// document. The result is a deep copy; callers may mutate it freely.
func (m *Manager) Merge() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.dirty && m.merged != nil {
		return Clone(m.merged)
	}

	ordered := make([]*Layer, 0, len(m.layers))
	for _, l := range m.layers {
		ordered = append(ordered, l)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Source.Priority() < ordered[j].Source.Priority()
	})

	merged := make(map[string]any)
	for _, l := range ordered {
		merged = DeepMerge(merged, l.Data)
	}

	m.merged = merged
	m.dirty = false
	return Clone(merged)
}

// Get resolves a value across all layers, honoring priority.
func (m *Manager) Get(path string) (any, bool) {
	return GetByPath(m.Merge(), path)
}

// Invalidate forces the next Merge to recompute from scratch.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirty = true
}
