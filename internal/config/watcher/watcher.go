// Package watcher detects on-disk changes to configuration documents.
//
// Because documents are replaced by atomic rename rather than rewritten in
// place, the watcher monitors the parent directory of each registered file
// and filters events down to the registered paths. Bursts of events for
// the same file are debounced into a single callback.
package watcher

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Errors returned by watcher operations.
var (
	// ErrWatcherClosed indicates the watcher has been closed.
	ErrWatcherClosed = errors.New("watcher closed")

	// ErrAlreadyWatching indicates the path is already registered.
	ErrAlreadyWatching = errors.New("already watching path")
)

// Op describes what happened to a watched file.
type Op int

const (
	// OpWrite indicates the file was created or its contents replaced.
	OpWrite Op = iota
	// OpRemove indicates the file was deleted or renamed away.
	OpRemove
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event is a debounced change to a watched file.
type Event struct {
	Path string
	Op   Op
}

// Handler is called for each debounced event.
type Handler func(Event)

// Watcher watches configuration files for external modification.
type Watcher struct {
	mu sync.Mutex

	fsw      *fsnotify.Watcher
	debounce time.Duration
	handler  Handler

	// Registered file paths (absolute) and watched parent dirs with
	// reference counts.
	paths map[string]bool
	dirs  map[string]int

	// Per-path debounce timers.
	timers map[string]*time.Timer

	closed bool
	wg     sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change is delivered.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher that invokes handler for each debounced change.
func New(handler Handler, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		debounce: 100 * time.Millisecond,
		handler:  handler,
		paths:    make(map[string]bool),
		dirs:     make(map[string]int),
		timers:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.loop()

	return w, nil
}

// Add registers a configuration file path to watch.
// The file itself does not need to exist yet; its parent directory does.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.paths[abs] {
		return ErrAlreadyWatching
	}

	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.paths[abs] = true
	return nil
}

// Remove stops watching a configuration file path.
func (w *Watcher) Remove(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.paths[abs] {
		return nil
	}
	delete(w.paths, abs)

	if t, ok := w.timers[abs]; ok {
		t.Stop()
		delete(w.timers, abs)
	}

	dir := filepath.Dir(abs)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		return w.fsw.Remove(dir)
	}
	return nil
}

// Close stops the watcher and releases its resources.
// Pending debounce timers are cancelled; their events are not delivered.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

// loop consumes raw fsnotify events until the underlying watcher closes.
func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleRaw(ev)
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// Directory-level errors are transient here. The next
			// successful event resumes normal delivery.
		}
	}
}

// handleRaw filters a raw event down to registered paths and schedules a
// debounced delivery.
func (w *Watcher) handleRaw(ev fsnotify.Event) {
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return
	}

	var op Op
	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		op = OpWrite
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		op = OpRemove
	default:
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || !w.paths[abs] {
		return
	}

	// Restart the timer on every raw event so a burst collapses into one
	// delivery carrying the final state.
	if t, ok := w.timers[abs]; ok {
		t.Stop()
	}
	event := Event{Path: abs, Op: op}
	w.timers[abs] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, abs)
		closed := w.closed
		w.mu.Unlock()

		if !closed && w.handler != nil {
			w.handler(event)
		}
	})
}
