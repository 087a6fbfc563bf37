// Package watch implements the event-driven indexing mode spec §6
// names behind the ASTROGRAPH_EVENT_DRIVEN environment variable: a
// long-running process re-indexes a changed file shortly after it
// settles, rather than re-walking the whole tree on every write.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"

	"github.com/astrograph-io/astrograph/pkg/config"
	"github.com/astrograph-io/astrograph/pkg/plugin"
)

// Watcher monitors a directory tree for changes to files the
// registry claims, debouncing rapid-fire writes before invoking its
// callback once per settled file.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    *config.Config
	registry  *plugin.Registry
	debounce  time.Duration
	path      string
	callback  func(path string)
	mu        sync.Mutex
	pending   map[string]time.Time
}

// NewWatcher creates a watcher rooted at path. registry determines
// which files are interesting; cfg's Exclude settings prune
// directories the same way pkg/scanner does.
func NewWatcher(path string, cfg *config.Config, debounce time.Duration, registry *plugin.Registry) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		registry:  registry,
		debounce:  debounce,
		path:      path,
		pending:   make(map[string]time.Time),
	}, nil
}

// SetCallback sets the function invoked once per settled file.
func (w *Watcher) SetCallback(cb func(path string)) {
	w.callback = cb
}

// Start begins watching for file changes and blocks until ctx is
// canceled or the underlying fsnotify channels close.
func (w *Watcher) Start(ctx context.Context) error {
	err := filepath.Walk(w.path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			for _, excluded := range w.config.Exclude.Dirs {
				if info.Name() == excluded {
					return filepath.SkipDir
				}
			}
			for _, excluded := range w.registry.SkipDirs() {
				if info.Name() == excluded {
					return filepath.SkipDir
				}
			}
			return w.fsWatcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	color.Cyan("Watching for changes in %s...", w.path)
	color.Cyan("Press Ctrl+C to stop")
	fmt.Println()

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			color.Red("Watch error: %v", err)
		}
	}
}

// handleEvent records a write/create event against a claimed,
// non-excluded file for later debounced processing.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	path := event.Name
	if w.config.ShouldExclude(path) {
		return
	}
	if _, ok := w.registry.ForExtension(filepath.Ext(path)); !ok {
		return
	}

	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending()
		}
	}
}

func (w *Watcher) processPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	var ready []string
	for path, lastMod := range w.pending {
		if now.Sub(lastMod) >= w.debounce {
			ready = append(ready, path)
		}
	}
	for _, path := range ready {
		delete(w.pending, path)
		if w.callback != nil {
			go w.runCallback(path)
		}
	}
}

func (w *Watcher) runCallback(path string) {
	relPath, err := filepath.Rel(w.path, path)
	if err != nil {
		relPath = path
	}

	color.Yellow("\nFile changed: %s", relPath)
	fmt.Println(strings.Repeat("-", 40))

	w.callback(path)

	fmt.Println()
}

// Stop releases the underlying OS watch handles.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedFiles returns the directories currently under watch.
func (w *Watcher) WatchedFiles() []string {
	return w.fsWatcher.WatchList()
}
