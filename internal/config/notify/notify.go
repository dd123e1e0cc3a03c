// Package notify provides change notification for configuration documents.
//
// Components subscribe to reconciliation events and receive callbacks when
// a document is repaired, restored from backup, reloaded from disk, or
// extended by a migration import.
package notify

import (
	"sync"

	"github.com/google/uuid"
)

// ChangeType represents the kind of configuration change.
type ChangeType int

const (
	// ChangeRepaired indicates an invalid value was replaced with a default.
	ChangeRepaired ChangeType = iota

	// ChangeFilled indicates a missing value was filled from defaults.
	ChangeFilled

	// ChangeDropped indicates an unrecognized key or array element was removed.
	ChangeDropped

	// ChangeRestored indicates the document was recovered from its backup.
	ChangeRestored

	// ChangeReloaded indicates the entire document was reloaded from disk.
	ChangeReloaded

	// ChangeImported indicates values were merged in from a legacy document.
	ChangeImported
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeRepaired:
		return "repaired"
	case ChangeFilled:
		return "filled"
	case ChangeDropped:
		return "dropped"
	case ChangeRestored:
		return "restored"
	case ChangeReloaded:
		return "reloaded"
	case ChangeImported:
		return "imported"
	default:
		return "unknown"
	}
}

// Change represents a configuration change event.
type Change struct {
	// Path is the dot-separated path to the changed field.
	// Empty for whole-document events such as reloads.
	Path string

	// Type is the kind of change.
	Type ChangeType

	// OldValue is the previous value (may be nil).
	OldValue any

	// NewValue is the new value (nil for drops).
	NewValue any

	// Source identifies where the change came from.
	Source string
}

// Observer is called when configuration changes occur.
type Observer func(change Change)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       string
	path     string
	observer Observer
	notifier *Notifier
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string {
	return s.id
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

// Notifier manages configuration change subscriptions.
type Notifier struct {
	mu sync.RWMutex

	// Global observers that receive all changes
	globalObservers map[string]Observer

	// Path-specific observers
	pathObservers map[string]map[string]Observer

	// Whether to notify synchronously or asynchronously
	async bool

	// Buffer for async notifications
	buffer chan Change

	// Done channel for shutdown
	done chan struct{}

	// Wait group for async goroutine
	wg sync.WaitGroup

	// Closed flag for idempotent Close
	closed bool
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAsync enables asynchronous notification delivery.
func WithAsync(bufferSize int) Option {
	return func(n *Notifier) {
		if bufferSize > 0 {
			n.async = true
			n.buffer = make(chan Change, bufferSize)
		}
	}
}

// New creates a new Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		globalObservers: make(map[string]Observer),
		pathObservers:   make(map[string]map[string]Observer),
		done:            make(chan struct{}),
	}

	for _, opt := range opts {
		opt(n)
	}

	if n.async {
		n.wg.Add(1)
		go n.processAsync()
	}

	return n
}

// Subscribe registers an observer for all changes.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := uuid.NewString()
	n.globalObservers[id] = observer

	return &Subscription{
		id:       id,
		observer: observer,
		notifier: n,
	}
}

// SubscribePath registers an observer for changes to a specific path.
// The observer is called for exact matches and for parent paths.
// For example, subscribing to "formatting" receives changes to
// "formatting.indentSize".
func (n *Notifier) SubscribePath(path string, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := uuid.NewString()
	if n.pathObservers[path] == nil {
		n.pathObservers[path] = make(map[string]Observer)
	}
	n.pathObservers[path][id] = observer

	return &Subscription{
		id:       id,
		path:     path,
		observer: observer,
		notifier: n,
	}
}

// Notify sends a change notification to all relevant observers.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	n.mu.RUnlock()

	if n.async {
		select {
		case n.buffer <- change:
		case <-n.done:
		}
		return
	}

	n.deliverChange(change)
}

// NotifyRestored is a convenience method for backup restore events.
func (n *Notifier) NotifyRestored(source string) {
	n.Notify(Change{
		Type:   ChangeRestored,
		Source: source,
	})
}

// NotifyReloaded is a convenience method for reload events.
func (n *Notifier) NotifyReloaded(source string) {
	n.Notify(Change{
		Type:   ChangeReloaded,
		Source: source,
	})
}

// Close shuts down the notifier. It is safe to call Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()

	close(n.done)
	n.wg.Wait()
}

// unsubscribe removes an observer by ID.
func (n *Notifier) unsubscribe(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.globalObservers, id)

	for path, observers := range n.pathObservers {
		delete(observers, id)
		if len(observers) == 0 {
			delete(n.pathObservers, path)
		}
	}
}

// deliverChange sends a change to all matching observers.
func (n *Notifier) deliverChange(change Change) {
	n.mu.RLock()

	var observers []Observer

	for _, obs := range n.globalObservers {
		observers = append(observers, obs)
	}

	if change.Path != "" {
		if pathObs, ok := n.pathObservers[change.Path]; ok {
			for _, obs := range pathObs {
				observers = append(observers, obs)
			}
		}

		// Parent path matches (e.g., "formatting" matches "formatting.indentSize")
		for path, pathObs := range n.pathObservers {
			if isParentPath(path, change.Path) {
				for _, obs := range pathObs {
					observers = append(observers, obs)
				}
			}
		}
	} else {
		// Whole-document event, notify all path observers too
		for _, pathObs := range n.pathObservers {
			for _, obs := range pathObs {
				observers = append(observers, obs)
			}
		}
	}

	n.mu.RUnlock()

	// Call observers outside the lock
	for _, obs := range observers {
		obs(change)
	}
}

// processAsync handles asynchronous notification delivery.
func (n *Notifier) processAsync() {
	defer n.wg.Done()

	for {
		select {
		case change := <-n.buffer:
			n.deliverChange(change)
		case <-n.done:
			// Drain remaining buffered changes
			for {
				select {
				case change := <-n.buffer:
					n.deliverChange(change)
				default:
					return
				}
			}
		}
	}
}

// isParentPath checks if parent is a parent path of child.
// e.g., "formatting" is parent of "formatting.indentSize".
func isParentPath(parent, child string) bool {
	if len(parent) >= len(child) {
		return false
	}
	if parent == "" {
		return true
	}
	return child[:len(parent)] == parent && child[len(parent)] == '.'
}
