package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// reloadOps are the events on the config file that trigger a reload. A save
// that writes a temp file and renames it over path arrives as Create.
const reloadOps = fsnotify.Write | fsnotify.Create

// Watch calls onChange with the freshly loaded Config every time the file at
// path is written or replaced, until ctx is cancelled.
//
// The parent directory is watched rather than the file itself, so the watch
// survives saves that rename a new file over path. A reload that fails is
// logged and the previous config stays active.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("config watch %s: %w", filepath.Dir(target), err)
	}
	slog.Info("config: watching for changes", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isConfigEvent(ev, target) {
				continue
			}
			cfg, err := Load(target)
			if err != nil {
				slog.Error("config: reload failed, keeping previous config",
					"path", target, "op", ev.Op.String(), "error", err)
				continue
			}
			slog.Info("config: reloaded", "path", target, "op", ev.Op.String())
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "error", err)
		}
	}
}

// isConfigEvent reports whether ev is a write or replacement of target.
// Events for sibling files in the directory are ignored.
func isConfigEvent(ev fsnotify.Event, target string) bool {
	if ev.Op&reloadOps == 0 {
		return false
	}
	name, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return name == target
}
