// Package watch invalidates cached renditions when source images change on
// disk.
package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

// Invalidator drops cached output derived from a source file.
type Invalidator interface {
	Invalidate(path string) int
}

// Watcher monitors root directories recursively and invalidates renditions
// of files that are written, removed or renamed.
type Watcher struct {
	inv     Invalidator
	watcher *fsnotify.Watcher
	logger  hclog.Logger

	mu      sync.Mutex
	started bool
	closed  bool
	done    chan struct{}
}

// New creates a Watcher. Call Add for each root, then Start.
func New(inv Invalidator, logger hclog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &Watcher{
		inv:     inv,
		watcher: fsWatcher,
		logger:  logger.Named("watch"),
		done:    make(chan struct{}),
	}, nil
}

// Add watches root and every directory below it. Hidden directories are
// skipped.
func (w *Watcher) Add(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch folder %s: %w", path, err)
		}
		w.logger.Debug("watching folder", "path", path)
		return nil
	})
}

// Start processes events in a new goroutine until Close is called. Calls
// after the first, or after Close, do nothing.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.closed {
		return
	}
	w.started = true
	go w.processEvents()
}

// Close stops watching and waits for the event loop, if one was started, to
// exit. It is safe to call more than once and without Start.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	started := w.started
	w.mu.Unlock()

	err := w.watcher.Close()
	if started {
		<-w.done
	}
	return err
}

func (w *Watcher) processEvents() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// handleEvent processes a single file event
func (w *Watcher) handleEvent(event fsnotify.Event) {
	name := filepath.Clean(event.Name)

	if event.Has(fsnotify.Create) {
		info, err := os.Stat(name)
		if err == nil && info.IsDir() {
			if err := w.Add(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
				w.logger.Warn("failed to watch new folder", "path", name, "error", err)
			}
			return
		}
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Create) {
		return
	}

	if removed := w.inv.Invalidate(name); removed > 0 {
		w.logger.Info("source changed, cache invalidated", "path", name, "removed", removed, "op", event.Op.String())
	}
}
