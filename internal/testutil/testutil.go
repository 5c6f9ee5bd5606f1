// Package testutil provides shared test helpers for vaults, databases and
// editing sessions.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/langreg"
	"github.com/starford/quire/internal/session"
	"github.com/starford/quire/internal/snapshot"
	"github.com/starford/quire/internal/storage"
)

// TestDB creates a temporary note index that is automatically closed.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "quire-index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestSnapshots creates a temporary snapshot store.
func TestSnapshots(t *testing.T) *snapshot.DB {
	t.Helper()
	db, err := snapshot.Open(filepath.Join(t.TempDir(), "quire-snapshots.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage provider.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// WriteNote creates a note file directly on disk.
func WriteNote(t *testing.T, vaultDir, rel, content string) {
	t.Helper()
	p := filepath.Join(vaultDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ReadNote reads a note file directly from disk.
func ReadNote(t *testing.T, vaultDir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(vaultDir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestSessions creates a session manager over store with a short debounce.
// Sessions are closed when the test ends.
func TestSessions(t *testing.T, store storage.Provider, snaps snapshot.Store, opts ...session.Option) *session.Manager {
	t.Helper()
	if snaps != nil {
		opts = append(opts, session.WithSnapshots(snaps))
	}
	m := session.NewManager(store, langreg.NewDefault(), Logger(), session.Config{
		Debounce:          20 * time.Millisecond,
		CheckboxTolerance: 1,
		SnapshotLimit:     snapshot.DefaultAutoLimit,
	}, opts...)
	t.Cleanup(m.CloseAll)
	return m
}
