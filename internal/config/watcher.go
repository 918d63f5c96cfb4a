package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadDelay is how long a town file must stay quiet before it is reloaded.
// Editors often write a file in several steps.
const ReloadDelay = 500 * time.Millisecond

// WatchTown reloads the town file at path whenever it changes and passes
// the result to onChange. Files that fail to load are logged and skipped.
// The watch stops when ctx is done.
func WatchTown(ctx context.Context, path string, logger *slog.Logger, onChange func(*Town)) error {
	path = filepath.Clean(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watch the directory so that atomic renames are seen too.
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	logger.Info("Town hot reloading enabled", "path", path)
	go watchLoop(ctx, w, path, logger, onChange)
	return nil
}

func watchLoop(ctx context.Context, w *fsnotify.Watcher, path string, logger *slog.Logger, onChange func(*Town)) {
	defer w.Close()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	reload := func() {
		if ctx.Err() != nil {
			return
		}
		tw, err := LoadTown(path)
		if err != nil {
			logger.Warn("Town file reload failed, keeping current town", "path", path, "error", err)
			return
		}
		logger.Info("Town file reloaded", "path", path)
		onChange(tw)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("Town file changed", "path", path, "op", event.Op.String())
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(ReloadDelay, reload)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Error("Town file watcher error", "error", err)
		}
	}
}
