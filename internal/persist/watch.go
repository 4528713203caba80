// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package persist

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/oops"

	"github.com/holomush/claimflags/pkg/errutil"
)

// ReloadFunc receives the outcome of a reload triggered by the watcher.
type ReloadFunc func(errs []string, err error)

// Watcher reloads a datastore when its file changes on disk.
type Watcher struct {
	store    *Datastore
	onReload ReloadFunc
	logger   *slog.Logger
}

// NewWatcher creates a watcher for store. onReload may be nil.
func NewWatcher(store *Datastore, onReload ReloadFunc) *Watcher {
	return &Watcher{
		store:    store,
		onReload: onReload,
		logger:   store.logger,
	}
}

// Run watches the directory holding the flags file until ctx is cancelled.
// Writes that leave the file identical to the last load or save are ignored,
// so the datastore's own saves do not trigger a reload.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return oops.In("persist").With("operation", "watch").Wrap(err)
	}
	defer func() { _ = fsw.Close() }()

	dir := filepath.Dir(w.store.Path())
	if err := fsw.Add(dir); err != nil {
		return oops.In("persist").With("operation", "watch").With("dir", dir).Wrap(err)
	}
	target := filepath.Clean(w.store.Path())

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.reload(ctx)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			errutil.WarnError(w.logger, "flags file watcher error", err)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	errs, reloaded, err := w.store.ReloadIfChanged(ctx)
	if err != nil {
		errutil.LogError(w.logger, "failed to reload flags file", err)
	} else if !reloaded {
		return
	}
	if w.onReload != nil {
		w.onReload(errs, err)
	}
}
