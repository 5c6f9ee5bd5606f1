package noteservice

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/checksum"
	"github.com/starford/quire/internal/session"
	"github.com/starford/quire/internal/testutil"
)

type fixture struct {
	dir string
	svc *Service
	mgr *session.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	snaps := testutil.TestSnapshots(t)
	mgr := testutil.TestSessions(t, store, snaps)
	return &fixture{dir: dir, svc: NewService(store, db, mgr, snaps), mgr: mgr}
}

func TestCreateGetList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.CreateNote(ctx, "plan.md", []byte("# Plan\n- [x] a\n- [ ] b"))
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if d.Title != "Plan" || d.Summary.Total != 2 || d.Summary.Completed != 1 {
		t.Errorf("detail = %+v", d)
	}
	if _, err := f.svc.CreateNote(ctx, "plan.md", []byte("x")); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate create err = %v", err)
	}
	if _, err := f.svc.CreateNote(ctx, "plan.txt", []byte("x")); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("non-note create err = %v", err)
	}

	items, total, err := f.svc.ListNotes(ctx, 10, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || items[0].Path != "plan.md" || items[0].Summary.Total != 2 {
		t.Errorf("items = %+v", items)
	}

	if _, err := f.svc.GetNote(ctx, "missing.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing err = %v", err)
	}
}

func TestUpdateNote_Conflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.WriteNote(t, f.dir, "a.md", "one")

	if _, err := f.svc.UpdateNote(ctx, "a.md", []byte("two"), "stale"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
	d, err := f.svc.UpdateNote(ctx, "a.md", []byte("two"), checksum.String("one"))
	if err != nil {
		t.Fatal(err)
	}
	if d.Content != "two" {
		t.Errorf("content = %q", d.Content)
	}
}

func TestUpdateNote_ReloadsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.WriteNote(t, f.dir, "a.md", "- [ ] a")
	s, _, err := f.mgr.Open(ctx, "a.md")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.UpdateNote(ctx, "a.md", []byte("- [x] a"), ""); err != nil {
		t.Fatal(err)
	}
	st, _ := s.State()
	if st.Text != "- [x] a" || len(st.CompletedLines) != 1 {
		t.Errorf("session state = %+v", st)
	}
}

func TestToggleAndAddTask_File(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.WriteNote(t, f.dir, "t.md", "---\ntitle: T\n---\n- [ ] a\r\n- [X] b\r\n")

	checked, err := f.svc.ToggleTask(ctx, "t.md", 4)
	if err != nil || !checked {
		t.Fatalf("ToggleTask = %v, %v", checked, err)
	}
	checked, err = f.svc.ToggleTask(ctx, "t.md", 5)
	if err != nil || checked {
		t.Fatalf("ToggleTask = %v, %v", checked, err)
	}
	if _, err := f.svc.ToggleTask(ctx, "t.md", 1); !errors.Is(err, session.ErrNotTask) {
		t.Errorf("err = %v, want ErrNotTask", err)
	}
	if _, err := f.svc.ToggleTask(ctx, "t.md", 42); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}

	line, err := f.svc.AddTask(ctx, "t.md", "c")
	if err != nil || line != 6 {
		t.Fatalf("AddTask = %d, %v", line, err)
	}
	want := "---\ntitle: T\n---\n- [x] a\r\n- [ ] b\r\n- [ ] c"
	if got := testutil.ReadNote(t, f.dir, "t.md"); got != want {
		t.Errorf("file = %q, want %q", got, want)
	}

	tasks, err := f.svc.Tasks(ctx, "t.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 3 || tasks[2].Line != 6 || tasks[2].Text != "c" {
		t.Errorf("tasks = %+v", tasks)
	}
	if _, err := f.svc.AddTask(ctx, "t.md", "two\nlines"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("multi-line err = %v", err)
	}
}

func TestToggleTask_ThroughSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.WriteNote(t, f.dir, "s.md", "- [ ] a")
	s, _, err := f.mgr.Open(ctx, "s.md")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.ToggleTask(ctx, "s.md", 1); err != nil {
		t.Fatal(err)
	}
	st, _ := s.State()
	if st.Text != "- [x] a" || !st.CanUndo {
		t.Errorf("toggle should be an undoable session edit: %+v", st)
	}
	d, err := f.svc.GetNote(ctx, "s.md")
	if err != nil {
		t.Fatal(err)
	}
	if d.SessionID != s.ID() || d.Summary.Completed != 1 {
		t.Errorf("detail = %+v", d)
	}
}

func TestMoveAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.CreateNote(ctx, "a.md", []byte("- [ ] a")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.CreateNote(ctx, "b.md", []byte("b")); err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.mgr.Open(ctx, "a.md"); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.MoveNote(ctx, "a.md", "b.md"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("move onto existing err = %v", err)
	}
	d, err := f.svc.MoveNote(ctx, "a.md", "dir/c.md")
	if err != nil {
		t.Fatal(err)
	}
	if d.Path != "dir/c.md" || d.SessionID == "" {
		t.Errorf("moved detail = %+v", d)
	}
	if _, ok := f.mgr.ByPath("dir/c.md"); !ok {
		t.Error("session should follow the move")
	}
	_, total, _ := f.svc.ListNotes(ctx, 10, 0, false)
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}

	if err := f.svc.DeleteNote(ctx, "dir/c.md"); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.mgr.ByPath("dir/c.md"); ok {
		t.Error("session should be closed on delete")
	}
	if err := f.svc.DeleteNote(ctx, "dir/c.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestSnapshots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.WriteNote(t, f.dir, "n.md", "# Note\n- [ ] a")

	snap, err := f.svc.CreateSnapshot(ctx, "n.md", "", "before")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Title != "Note" || snap.Content != "# Note\n- [ ] a" || snap.Auto {
		t.Errorf("snapshot = %+v", snap)
	}

	if _, err := f.svc.ToggleTask(ctx, "n.md", 2); err != nil {
		t.Fatal(err)
	}
	d, err := f.svc.RestoreSnapshot(ctx, snap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if d.Content != "# Note\n- [ ] a" {
		t.Errorf("restored = %q", d.Content)
	}
	if _, err := f.svc.RestoreSnapshot(ctx, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestAppendTask(t *testing.T) {
	tests := []struct {
		in   string
		want string
		line int
	}{
		{"", "- [ ] x", 1},
		{"a", "a\n- [ ] x", 2},
		{"a\n", "a\n- [ ] x", 2},
		{"a\r\nb", "a\r\nb\r\n- [ ] x", 3},
	}
	for _, tt := range tests {
		got, line := appendTask(tt.in, "x")
		if got != tt.want || line != tt.line {
			t.Errorf("appendTask(%q) = %q, %d; want %q, %d", tt.in, got, line, tt.want, tt.line)
		}
	}
}
