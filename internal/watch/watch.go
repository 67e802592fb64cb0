// Package watch reloads the engine when dialect sources change on disk.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses bursts of editor writes into one reload.
const DefaultDebounce = 100 * time.Millisecond

// Reloader is implemented by *engine.Engine.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Config holds watcher configuration.
type Config struct {
	Dirs     []string
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher triggers Reload after changes to YAML files under Dirs.
type Watcher struct {
	target   Reloader
	dirs     []string
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a watcher for target.
func New(target Reloader, cfg Config) *Watcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{target: target, dirs: cfg.Dirs, debounce: debounce, logger: logger}
}

// Run watches until ctx is done. Directories that do not exist are
// skipped with a warning.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	watched := 0
	for _, dir := range w.dirs {
		if err := watchDirRecursive(watcher, dir); err != nil {
			w.logger.Warn("failed to watch dialect directory", slog.String("dir", dir), slog.String("error", err.Error()))
			continue
		}
		watched++
	}
	w.logger.Info("watching dialect sources", slog.Int("dirs", watched))

	// Reloads run on this goroutine, so none can start after Run returns.
	var (
		timer   *time.Timer
		fire    <-chan time.Time
		changed string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-fire:
			fire = nil
			w.logger.Debug("dialect source changed, reloading", slog.String("file", changed))
			if err := w.target.Reload(ctx); err != nil {
				w.logger.Error("reload failed", slog.String("error", err.Error()))
			}

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchDirRecursive(watcher, event.Name)
				}
			}
			if !relevant(event) {
				continue
			}

			changed = event.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", slog.String("error", err.Error()))
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	ext := filepath.Ext(event.Name)
	return ext == ".yaml" || ext == ".yml" || ext == ""
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	if dir == "" {
		return errors.New("empty directory")
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
