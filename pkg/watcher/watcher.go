// Package watcher reports changed STL files after a quiet period.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Handler is called with the absolute path of a changed file.
type Handler func(path string)

type target struct {
	match   func(path string) bool
	handler Handler
}

// FileWatcher watches files and directories and calls a handler once a
// changed file has been quiet for the debounce interval.
//
// Directories are watched instead of single files, so editors and
// exporters that replace files by renaming are still noticed.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	log      *zap.Logger
	debounce time.Duration

	mu      sync.Mutex
	dirs    map[string]bool
	targets []target
	timers  map[string]*time.Timer
}

// NewFileWatcher creates a new file watcher. A nil logger discards output.
func NewFileWatcher(debounce time.Duration, log *zap.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FileWatcher{
		watcher:  w,
		log:      log,
		debounce: debounce,
		dirs:     make(map[string]bool),
		timers:   make(map[string]*time.Timer),
	}, nil
}

// WatchFiles calls handler whenever one of files changes.
func (fw *FileWatcher) WatchFiles(files []string, handler Handler) error {
	for _, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", file, err)
		}
		if err := fw.addDir(filepath.Dir(absPath)); err != nil {
			return err
		}
		fw.addTarget(func(path string) bool { return path == absPath }, handler)
	}
	return nil
}

// WatchDir calls handler for every file in dir whose base name matches
// pattern, compared case-insensitively (e.g. "*.stl").
func (fw *FileWatcher) WatchDir(dir, pattern string, handler Handler) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve path %s: %w", dir, err)
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	if err := fw.addDir(absDir); err != nil {
		return err
	}
	pattern = strings.ToLower(pattern)
	fw.addTarget(func(path string) bool {
		if filepath.Dir(path) != absDir {
			return false
		}
		ok, _ := filepath.Match(pattern, strings.ToLower(filepath.Base(path)))
		return ok
	}, handler)
	return nil
}

func (fw *FileWatcher) addDir(dir string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.dirs[dir] {
		return nil
	}
	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	fw.dirs[dir] = true
	return nil
}

func (fw *FileWatcher) addTarget(match func(string) bool, handler Handler) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.targets = append(fw.targets, target{match: match, handler: handler})
}

// Run dispatches change events until ctx is done or the watcher is closed.
func (fw *FileWatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			fw.stopTimers()
			return ctx.Err()

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			// Only trigger on write or create events
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				fw.handleFileChange(event.Name)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			fw.log.Warn("watcher error", zap.Error(err))
		}
	}
}

// handleFileChange restarts the quiet period of path
func (fw *FileWatcher) handleFileChange(path string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	var handler Handler
	for _, t := range fw.targets {
		if t.match(path) {
			handler = t.handler
			break
		}
	}
	if handler == nil {
		return
	}

	if timer, exists := fw.timers[path]; exists {
		timer.Stop()
	}
	fw.timers[path] = time.AfterFunc(fw.debounce, func() {
		fw.mu.Lock()
		delete(fw.timers, path)
		fw.mu.Unlock()

		fw.log.Debug("file changed", zap.String("path", path))
		handler(path)
	})
}

func (fw *FileWatcher) stopTimers() {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	for path, timer := range fw.timers {
		timer.Stop()
		delete(fw.timers, path)
	}
}

// Close stops the watcher
func (fw *FileWatcher) Close() error {
	fw.stopTimers()
	return fw.watcher.Close()
}
