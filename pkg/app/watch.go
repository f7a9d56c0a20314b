package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ControlsWatcher reloads a controls file whenever it changes on disk.
type ControlsWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	log     *slog.Logger
}

// WatchControls starts watching path. The watch is active when it returns.
func WatchControls(path string, logger *slog.Logger) (*ControlsWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Editors save by renaming over the file, which drops a watch on the
	// file itself.
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	return &ControlsWatcher{path: filepath.Clean(path), watcher: w, log: logger}, nil
}

// Run calls fn with every successfully reloaded snapshot until ctx is done
// or the watcher is closed. Files that fail to load are logged and skipped.
func (cw *ControlsWatcher) Run(ctx context.Context, fn func(Controls)) error {
	defer cw.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != cw.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			c, err := LoadControls(cw.path)
			if err != nil {
				// partial writes show up here too; the next event retries
				cw.log.Warn("controls reload failed", "path", cw.path, "err", err)
				continue
			}
			cw.log.Debug("controls reloaded", "path", cw.path)
			fn(c)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return nil
			}
			cw.log.Warn("controls watcher", "err", err)
		}
	}
}

// Close stops the watcher; a running Run returns.
func (cw *ControlsWatcher) Close() error {
	return cw.watcher.Close()
}
