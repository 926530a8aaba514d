// Package watcher reports changes to encounter log files. Parent directories
// are watched rather than the files, so a log created or recreated after
// start-up (the game opens a new one each time logging is toggled) is seen.
package watcher

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// Event represents a change to a file matching one of the patterns.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher monitors log files using OS-level notifications.
type Watcher struct {
	fsw      *fsnotify.Watcher
	Events   chan Event
	patterns []string

	mu    sync.RWMutex
	paths map[string]bool
	dirs  map[string]bool
}

// New creates a Watcher for the given glob patterns. Existing matches are
// listed by Paths; files created later that match are reported as Create.
func New(patterns []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:    fsw,
		Events: make(chan Event, 256),
		paths:  make(map[string]bool),
		dirs:   make(map[string]bool),
	}

	for _, pattern := range patterns {
		abs, err := filepath.Abs(pattern)
		if err != nil {
			log.Printf("warning: bad pattern %q: %v", pattern, err)
			continue
		}
		w.patterns = append(w.patterns, abs)

		base, _ := doublestar.SplitPattern(filepath.ToSlash(abs))
		w.watchDir(filepath.FromSlash(base))

		matches, err := expandGlob(abs)
		if err != nil {
			log.Printf("warning: failed to expand pattern %q: %v", pattern, err)
			continue
		}
		for _, m := range matches {
			w.watchDir(filepath.Dir(m))
			w.paths[m] = true
		}
	}

	return w, nil
}

// watchDir adds a directory to the underlying watcher once.
func (w *Watcher) watchDir(dir string) {
	if w.dirs[dir] {
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return
	}
	if err := w.fsw.Add(dir); err != nil {
		log.Printf("warning: cannot watch %s: %v", dir, err)
		return
	}
	w.dirs[dir] = true
}

// Start begins listening for file events. It blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.Events)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.Match(ev.Name) {
				continue
			}
			// Forward relevant events (write, create, remove, rename).
			switch {
			case ev.Op&fsnotify.Create != 0:
				w.track(ev.Name, true)
			case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
				w.track(ev.Name, false)
			case ev.Op&fsnotify.Write != 0:
			default:
				continue
			}
			select {
			case w.Events <- Event{Path: ev.Name, Op: ev.Op}:
			case <-ctx.Done():
				return
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watcher error: %v", err)
		}
	}
}

func (w *Watcher) track(path string, present bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if present {
		w.paths[path] = true
	} else {
		delete(w.paths, path)
	}
}

// Match reports whether path matches one of the watched patterns.
func (w *Watcher) Match(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, p := range w.patterns {
		if ok, _ := doublestar.Match(filepath.ToSlash(p), slashed); ok {
			return true
		}
	}
	return false
}

// Paths returns the files currently known to match, sorted.
func (w *Watcher) Paths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.paths))
	for p := range w.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of files currently known to match.
func (w *Watcher) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.paths)
}

// expandGlob resolves a glob pattern to matching file paths.
// Supports recursive patterns like ~/Documents/**/Encounter*.log via doublestar.
func expandGlob(pattern string) ([]string, error) {
	return doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
}
