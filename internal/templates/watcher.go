package templates

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// #region watcher

// Watcher reloads a Bank whenever its template file changes on disk.
// The parent directory is watched so editor rename-on-save is seen.
type Watcher struct {
	bank     *Bank
	path     string
	debounce time.Duration
	logger   *zap.Logger

	// OnReload, if set, is called after each reload attempt.
	OnReload func(err error)
}

// NewWatcher creates a watcher for path. logger may be nil.
func NewWatcher(bank *Bank, path string, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		bank:     bank,
		path:     filepath.Clean(path),
		debounce: 200 * time.Millisecond,
		logger:   logger,
	}
}

// Run watches until ctx is done. A failed reload keeps the previous table.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching templates", zap.String("path", w.path))

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("template watcher error", zap.Error(err))

		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	err := w.bank.LoadFile(w.path)
	if err != nil {
		w.logger.Warn("template reload failed, keeping previous table", zap.Error(err))
	} else {
		w.logger.Info("templates reloaded", zap.Int("intents", len(w.bank.Snapshot())))
	}
	if w.OnReload != nil {
		w.OnReload(err)
	}
}

// #endregion watcher
