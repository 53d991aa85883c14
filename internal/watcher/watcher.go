// Package watcher watches an application directory for source changes.
//
// It backs the host-side restart loop for SSR-mode applications: the
// dev-server engine watches its own module graph, but a plain server
// process does not, so the serve harness restarts it when sources
// change.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vitebridge/vitebridge/internal/logger"
)

// DefaultIgnore lists directory and file patterns never worth watching.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	"dist",
	".vite",
	"*.tmp",
	"*.swp",
	"*~",
}

// DefaultDebounce is the quiet period before a change burst fires.
const DefaultDebounce = 100 * time.Millisecond

// Config configures the watcher.
type Config struct {
	// Dir is the root directory to watch, recursively.
	Dir string

	// Allow restricts change notifications to base names matching the
	// given glob patterns. Empty means all files.
	Allow []string

	// Ignore skips base names matching the given glob patterns, in
	// addition to DefaultIgnore.
	Ignore []string

	// Debounce is the quiet period before a change burst fires.
	Debounce time.Duration
}

// Watcher monitors a directory tree and coalesces change bursts.
type Watcher struct {
	config   Config
	onChange func(paths []string)

	mu      sync.Mutex
	running bool
}

// New creates a watcher for the given configuration.
func New(config Config) *Watcher {
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	config.Ignore = append(append([]string{}, DefaultIgnore...), config.Ignore...)
	return &Watcher{config: config}
}

// OnChange sets the callback invoked with each coalesced change burst.
func (w *Watcher) OnChange(fn func(paths []string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start watches until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, w.config.Dir); err != nil {
		return err
	}

	var (
		pending []string
		timer   *time.Timer
		fire    <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			// New directories join the watch set as they appear.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(fsw, event.Name)
				}
			}
			pending = append(pending, event.Name)
			if timer == nil {
				timer = time.NewTimer(w.config.Debounce)
			} else {
				timer.Reset(w.config.Debounce)
			}
			fire = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)

		case <-fire:
			w.mu.Lock()
			fn := w.onChange
			w.mu.Unlock()
			if fn != nil && len(pending) > 0 {
				fn(pending)
			}
			pending = nil
			fire = nil
		}
	}
}

// addRecursive registers dir and its non-ignored subdirectories.
func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.ignored(d.Name()) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

// relevant filters events down to allowed, non-ignored file changes.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	if w.ignored(name) {
		return false
	}
	if len(w.config.Allow) == 0 {
		return true
	}
	for _, pattern := range w.config.Allow {
		if match(pattern, name) {
			return true
		}
	}
	return false
}

func (w *Watcher) ignored(name string) bool {
	for _, pattern := range w.config.Ignore {
		if match(pattern, name) {
			return true
		}
	}
	return false
}

// match is a forgiving glob match on the base name.
func match(pattern, name string) bool {
	if !strings.ContainsAny(pattern, "*?[") {
		return pattern == name
	}
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}
