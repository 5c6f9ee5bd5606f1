// Package watch keeps the note index in step with the vault directory and
// reports every change so open editing sessions can pick up external edits.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/quire/internal/checksum"
	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/storage"
)

// Change kinds.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

// reconcileDelay coalesces bursts of rename events.
const reconcileDelay = 200 * time.Millisecond

// Change describes one index mutation caused by the file system.
type Change struct {
	Kind     string
	Path     string // vault-relative, slash separated
	Checksum string // empty for Deleted
}

// Callback receives changes after the index has been updated.
type Callback func(Change)

// Watcher follows a vault root with fsnotify.
type Watcher struct {
	idx    index.NoteIndex
	store  storage.Provider
	root   string
	logger *slog.Logger
	cb     Callback
}

// New creates a watcher for the vault served by store. cb may be nil.
func New(idx index.NoteIndex, store storage.Provider, logger *slog.Logger, cb Callback) (*Watcher, error) {
	root, err := store.Abs("")
	if err != nil {
		return nil, err
	}
	return &Watcher{idx: idx, store: store, root: root, logger: logger, cb: cb}, nil
}

// Run processes file change events until ctx is cancelled.
//
// New directories created at runtime are added to the watch list. Rename
// events trigger a reconciliation pass that removes index entries whose
// files no longer exist and indexes files that are not yet known.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, w.root); err != nil {
		return err
	}
	w.logger.Info("watcher: started", slog.String("root", w.root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			w.logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			w.reconcile()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, ev, scheduleReconcile)

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (w *Watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event, scheduleReconcile func()) {
	absPath := ev.Name

	if ev.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
			if addErr := addDirsRecursive(fw, absPath); addErr != nil {
				w.logger.Warn("watcher: add new dir failed",
					slog.String("path", absPath),
					slog.String("error", addErr.Error()))
			} else {
				w.logger.Debug("watcher: watching new dir", slog.String("path", absPath))
			}
			w.indexDir(absPath)
			return
		}
	}

	if storage.IsTemp(absPath) || !storage.IsNote(absPath) {
		return
	}
	rel, err := filepath.Rel(w.root, absPath)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		kind := Updated
		if ev.Op&fsnotify.Create != 0 {
			kind = Created
		}
		w.index(rel, kind)

	case ev.Op&fsnotify.Remove != 0:
		w.remove(rel)

	case ev.Op&fsnotify.Rename != 0:
		// fsnotify reports Rename on the old path only; the new path
		// arrives as a Create when it stays inside a watched directory.
		w.remove(rel)
		scheduleReconcile()
	}
}

// index reads and indexes one note. Content whose checksum the index
// already holds for rel is neither re-indexed nor reported.
func (w *Watcher) index(rel, kind string) {
	data, err := w.store.Read(rel)
	if err != nil {
		w.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	sum := checksum.Sum(data)
	if prev, err := w.idx.GetChecksum(rel); err == nil && prev == sum {
		w.logger.Debug("watcher: unchanged", slog.String("path", rel))
		return
	}
	info, err := os.Stat(filepath.Join(w.root, filepath.FromSlash(rel)))
	updatedAt := time.Now()
	if err == nil {
		updatedAt = info.ModTime()
	}
	if err := index.IndexFile(w.idx, rel, data, updatedAt); err != nil {
		w.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
	w.emit(Change{Kind: kind, Path: rel, Checksum: sum})
}

func (w *Watcher) remove(rel string) {
	if err := w.idx.DeleteNote(rel); err != nil {
		w.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: deleted", slog.String("path", rel))
	w.emit(Change{Kind: Deleted, Path: rel})
}

func (w *Watcher) emit(c Change) {
	if w.cb != nil {
		w.cb(c)
	}
}

// reconcile removes index entries without a file on disk and indexes files
// whose checksum the index does not know.
func (w *Watcher) reconcile() {
	checksums, err := w.idx.AllChecksums()
	if err != nil {
		w.logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := w.store.List("")
	if err != nil {
		w.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			w.remove(p)
		}
	}
	for _, m := range metas {
		if checksums[m.Path] == m.Checksum {
			continue
		}
		kind := Updated
		if _, known := checksums[m.Path]; !known {
			kind = Created
		}
		w.index(m.Path, kind)
	}
}

// indexDir indexes the notes already present in a newly created directory.
func (w *Watcher) indexDir(dir string) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !storage.IsNote(p) {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, p)
		if relErr != nil {
			return nil
		}
		w.index(filepath.ToSlash(rel), Created)
		return nil
	})
}

// addDirsRecursive adds root and its non-hidden subdirectories to the watcher.
func addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && len(d.Name()) > 1 && d.Name()[0] == '.' {
			return filepath.SkipDir
		}
		return fw.Add(p)
	})
}
