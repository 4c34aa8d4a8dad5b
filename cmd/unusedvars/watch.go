package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jward/unusedvars"
)

// watchDebounce collects bursts of events (editors write several) into a
// single re-check.
const watchDebounce = 200 * time.Millisecond

// skipWatchDirs are never watched.
var skipWatchDirs = map[string]bool{
	"node_modules":     true,
	"bower_components": true,
	"vendor":           true,
}

// sqliteSuffixes are the side files SQLite keeps next to a database.
var sqliteSuffixes = []string{"", "-wal", "-shm", "-journal"}

// watcher re-checks a directory tree when its files change.
type watcher struct {
	fsw      *fsnotify.Watcher
	engine   *unusedvars.Engine
	root     string
	debounce time.Duration

	// ignore holds paths whose events are dropped: the database the
	// engine itself writes.
	ignore map[string]bool
}

// newWatcher watches root and every non-hidden subdirectory. Events for
// dbPath and its SQLite side files are ignored.
func newWatcher(engine *unusedvars.Engine, root, dbPath string) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	w := &watcher{
		fsw:      fsw,
		engine:   engine,
		root:     root,
		debounce: watchDebounce,
		ignore:   make(map[string]bool),
	}
	if dbPath != "" {
		for _, suffix := range sqliteSuffixes {
			w.ignore[filepath.Clean(dbPath)+suffix] = true
		}
	}
	if err := w.addDirs(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *watcher) Close() error {
	return w.fsw.Close()
}

// watch re-runs onChange whenever files under root change, until ctx is
// canceled. Removed files are dropped from the engine before onChange.
func watch(ctx context.Context, engine *unusedvars.Engine, root, dbPath string, onChange func(changed []string)) error {
	w, err := newWatcher(engine, root, dbPath)
	if err != nil {
		return err
	}
	defer w.Close()
	fmt.Fprintf(os.Stderr, "Watching %s (Ctrl-C to stop)\n", root)
	return w.run(ctx, onChange)
}

// run is the event loop. It returns nil when ctx is canceled.
func (w *watcher) run(ctx context.Context, onChange func(changed []string)) error {
	pending := make(map[string]bool)
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.ignore[filepath.Clean(ev.Name)] {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addDirs(ev.Name); err != nil {
						fmt.Fprintf(os.Stderr, "Warning: %s\n", err)
					}
					continue
				}
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			pending[ev.Name] = true
			fire = time.After(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Warning: watch: %s\n", err)

		case <-fire:
			fire = nil
			changed := drain(pending)
			var removed []string
			for _, p := range changed {
				if _, err := os.Stat(p); err != nil {
					removed = append(removed, p)
				}
			}
			if err := w.engine.RemoveFiles(removed); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %s\n", err)
			}
			onChange(changed)
		}
	}
}

func drain(pending map[string]bool) []string {
	out := make([]string, 0, len(pending))
	for p := range pending {
		out = append(out, p)
		delete(pending, p)
	}
	sort.Strings(out)
	return out
}

// addDirs adds dir and its subdirectories to the watcher. fsnotify
// watches are not recursive.
func (w *watcher) addDirs(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != w.root && (strings.HasPrefix(name, ".") || skipWatchDirs[name]) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
