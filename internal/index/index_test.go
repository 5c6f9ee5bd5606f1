package index

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/checksum"
	"github.com/starford/quire/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "quire-index.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("notes table missing: %v", err)
	}
	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("version = %d, want %d", v, len(migrations))
	}
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.UpsertNote(NoteRow{Path: "keep.md", Checksum: "k"}, "- [ ] stay"); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	if _, err := db.GetNote("keep.md"); err != nil {
		t.Errorf("row lost after reopen: %v", err)
	}
}

func TestNewerSchemaRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := db.conn.Exec(`PRAGMA user_version = 99`); err != nil {
		t.Fatalf("set version: %v", err)
	}
	db.Close()

	if _, err := Open(path); err == nil {
		t.Error("expected error for a schema from a newer build")
	}
}

func TestWithPragmas(t *testing.T) {
	if got := withPragmas("a.db"); got[:5] != "a.db?" {
		t.Errorf("withPragmas = %q", got)
	}
	if got := withPragmas("file:a.db?mode=rwc"); got[:19] != "file:a.db?mode=rwc&" {
		t.Errorf("withPragmas = %q", got)
	}
}

func TestUpsertAndGet(t *testing.T) {
	db := testDB(t)
	row := NoteRow{
		Path:       "todo.md",
		Title:      "Todo",
		Checksum:   "abc123",
		TasksTotal: 3,
		TasksDone:  1,
		UpdatedAt:  time.Now(),
	}
	if err := db.UpsertNote(row, "- [ ] a\n- [x] b\n- [ ] c"); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	cs, err := db.GetChecksum("todo.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
	got, err := db.GetNote("todo.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Title != "Todo" || got.TasksTotal != 3 || got.TasksDone != 1 {
		t.Errorf("note = %+v", got)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetNote("missing.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	cs, err := db.GetChecksum("missing.md")
	if err != nil || cs != "" {
		t.Errorf("checksum = %q, err = %v", cs, err)
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertNote(NoteRow{Path: "up.md", Title: "Old", Checksum: "1", TasksTotal: 1, UpdatedAt: now}, "old body")
	_ = db.UpsertNote(NoteRow{Path: "up.md", Title: "New", Checksum: "2", TasksTotal: 2, TasksDone: 2, UpdatedAt: now}, "new body")

	got, err := db.GetNote("up.md")
	if err != nil {
		t.Fatal(err)
	}
	if got.Checksum != "2" || got.Title != "New" || got.TasksDone != 2 {
		t.Errorf("note = %+v", got)
	}
}

func TestDeleteNote(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "del.md", Checksum: "x"}, "body")
	if err := db.DeleteNote("del.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if cs, _ := db.GetChecksum("del.md"); cs != "" {
		t.Errorf("deleted note still has checksum %q", cs)
	}
}

func TestListNotes(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "b.md", Checksum: "1", TasksTotal: 2, TasksDone: 2}, "")
	_ = db.UpsertNote(NoteRow{Path: "a.md", Checksum: "2", TasksTotal: 2, TasksDone: 1}, "")
	_ = db.UpsertNote(NoteRow{Path: "c.md", Checksum: "3"}, "")

	all, total, err := db.ListNotes(2, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(all) != 2 || all[0].Path != "a.md" || all[1].Path != "b.md" {
		t.Errorf("page = %+v, total = %d", all, total)
	}

	open, total, err := db.ListNotes(0, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(open) != 1 || open[0].Path != "a.md" {
		t.Errorf("open = %+v, total = %d", open, total)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "s.md", Title: "Search Me", Checksum: "1"}, "- [ ] uniqueword appears here")
	_ = db.UpsertNote(NoteRow{Path: "t.md", Title: "Other", Checksum: "2"}, "nothing")

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "s.md" {
		t.Errorf("search results = %+v, want 1 hit for s.md", results)
	}
}

func TestSearch_EdgeQueries(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "p.md", Title: "Punct", Checksum: "1"}, "- [ ] call \"bob\" (re: invoice)")

	results, err := db.Search("   ", 10)
	if err != nil || len(results) != 0 {
		t.Errorf("blank query: %v %+v", err, results)
	}
	for _, q := range []string{`"bob"`, "(re:", "invoice)"} {
		if _, err := db.Search(q, 10); err != nil {
			t.Errorf("Search(%q): %v", q, err)
		}
	}
}

func TestSync(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	content := "# Plan\n- [x] done\n- [ ] open\n"
	if err := os.WriteFile(filepath.Join(dir, "plan.md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	_ = db.UpsertNote(NoteRow{Path: "stale.md", Checksum: "s"}, "")

	if err := Sync(db, store, discard()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	got, err := db.GetNote("plan.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Title != "Plan" || got.TasksTotal != 2 || got.TasksDone != 1 {
		t.Errorf("note = %+v", got)
	}
	if got.Checksum != checksum.String(content) {
		t.Errorf("checksum = %q", got.Checksum)
	}
	if cs, _ := db.GetChecksum("stale.md"); cs != "" {
		t.Error("stale entry should be removed")
	}
}
