// Package watch triggers feature re-runs when .feature files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses bursts of editor writes into one trigger.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches feature files and directories and signals on Changes after a quiet period.
type Watcher struct {
	fsw      *fsnotify.Watcher
	watchDir func(string) error
	debounce time.Duration
	changes  chan string

	roots []string        // directories watched recursively
	files map[string]bool // single files, their parent directory is watched
}

// New creates a watcher over the given feature paths. Directories are watched recursively,
// files are watched through their parent directory. Zero debounce means DefaultDebounce.
func New(paths []string, debounce time.Duration) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("no paths to watch")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}

	w := &Watcher{fsw: fsw, watchDir: fsw.Add, debounce: debounce, changes: make(chan string, 1), files: map[string]bool{}}
	for _, p := range paths {
		if err := w.add(p); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Changes delivers the last changed feature file of each debounced burst.
// A pending trigger is kept until read, later bursts do not queue up behind it.
func (w *Watcher) Changes() <-chan string { return w.changes }

// Start processes fs events until ctx is done. It closes the underlying watcher on return.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.fsw.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.watched(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				// pick up directories created after start, a directory gone already is skipped
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addDir(ev.Name); err != nil && !errors.Is(err, fs.ErrNotExist) {
						return fmt.Errorf("watch features: %w", err)
					}
					continue
				}
			}
			if !isFeatureChange(ev) {
				continue
			}
			last = ev.Name
			timer.Reset(w.debounce)
		case <-timer.C:
			select {
			case w.changes <- last:
			default:
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch features: %w", err)
		}
	}
}

// add registers p; directories recursively, files via their parent.
func (w *Watcher) add(p string) error {
	p = filepath.Clean(p)
	info, err := os.Stat(p)
	if err != nil {
		return fmt.Errorf("watch %s: %w", p, err)
	}
	if info.IsDir() {
		w.roots = append(w.roots, p)
		return w.addDir(p)
	}
	if err := w.watchDir(filepath.Dir(p)); err != nil {
		return fmt.Errorf("watch %s: %w", p, err)
	}
	w.files[p] = true
	return nil
}

// addDir watches dir and its subdirectories, skipping hidden ones.
func (w *Watcher) addDir(dir string) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watchDir(path)
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	return nil
}

// watched reports whether name is one of the watched files or lies under a watched directory.
// Siblings of a watched file share its parent's events and are dropped here.
func (w *Watcher) watched(name string) bool {
	name = filepath.Clean(name)
	if w.files[name] {
		return true
	}
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, name)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func isFeatureChange(ev fsnotify.Event) bool {
	if filepath.Ext(ev.Name) != ".feature" {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
