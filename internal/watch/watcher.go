// Package watch reports batches of Dart source changes under a workspace.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"reanalyzer/internal/source"
)

// DefaultDebounce is how long the watcher waits for more changes before
// delivering a batch.
const DefaultDebounce = 200 * time.Millisecond

// Handler receives the sorted, de-duplicated paths changed in one batch.
type Handler func(paths []string)

// Options configures a Watcher.
type Options struct {
	Debounce        time.Duration
	ExcludePatterns []string
	// Errorf receives watch errors. May be nil.
	Errorf func(format string, args ...any)
}

// Watcher watches root recursively for .dart changes.
type Watcher struct {
	root     string
	fsw      *fsnotify.Watcher
	handler  Handler
	debounce time.Duration
	patterns []string
	errorf   func(format string, args ...any)
}

// New creates a watcher and registers every non-excluded directory.
func New(root string, handler Handler, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w := &Watcher{
		root:     root,
		fsw:      fsw,
		handler:  handler,
		debounce: opts.Debounce,
		patterns: opts.ExcludePatterns,
		errorf:   opts.Errorf,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.errorf == nil {
		w.errorf = func(string, ...any) {}
	}
	if err := w.addRecursive(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && source.IsExcluded(w.root, path, true, w.patterns) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) relevant(path string) bool {
	if !source.IsDartFile(path) {
		return false
	}
	if source.IsExcluded(w.root, filepath.Dir(path), true, w.patterns) {
		return false
	}
	return !source.IsExcluded(w.root, path, false, w.patterns)
}

// Run delivers batches until ctx is done, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(pending) == 0 {
			return
		}
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		clear(pending)
		if w.handler != nil {
			w.handler(paths)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !source.IsExcluded(w.root, event.Name, true, w.patterns) {
						if err := w.addRecursive(event.Name); err != nil {
							w.errorf("%v", err)
						}
					}
					continue
				}
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			flush()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.errorf("watch error: %v", err)
		}
	}
}
