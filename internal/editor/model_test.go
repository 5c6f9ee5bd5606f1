package editor

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_DetectsCRLF(t *testing.T) {
	m := New("a\r\nb", Options{})
	if m.EOL() != EOLCRLF {
		t.Fatalf("eol = %v, want CRLF", m.EOL())
	}
	if m.LineCount() != 2 {
		t.Fatalf("line count = %d, want 2", m.LineCount())
	}
	if m.LineContent(1) != "a" {
		t.Errorf("line 1 = %q, want %q", m.LineContent(1), "a")
	}
	if m.Value() != "a\r\nb" {
		t.Errorf("value = %q", m.Value())
	}
	if m.LineContent(3) != "" {
		t.Errorf("out of range line = %q, want empty", m.LineContent(3))
	}
}

func TestExecuteEdits_Insert(t *testing.T) {
	m := New("hello\nworld", Options{})
	var events []ContentChangedEvent
	m.OnDidChangeContent(func(ev ContentChangedEvent) { events = append(events, ev) })

	ok := m.ExecuteEdits("test", []EditOperation{{
		Range: NewRange(Position{1, 6}, Position{1, 6}),
		Text:  " there",
	}})
	if !ok {
		t.Fatal("expected edit to apply")
	}
	if m.Value() != "hello there\nworld" {
		t.Fatalf("value = %q", m.Value())
	}
	if got := m.Position(); got != (Position{1, 12}) {
		t.Errorf("position = %v, want (1,12)", got)
	}
	if len(events) != 1 || events[0].Source != "test" || events[0].VersionID != 1 {
		t.Errorf("events = %+v", events)
	}
}

func TestExecuteEdits_BatchIsOneStep(t *testing.T) {
	m := New("abc", Options{})
	count := 0
	m.OnDidChangeContent(func(ContentChangedEvent) { count++ })

	m.ExecuteEdits("test", []EditOperation{
		{Range: NewRange(Position{1, 1}, Position{1, 1}), Text: "X"},
		{Range: NewRange(Position{1, 4}, Position{1, 4}), Text: "Y"},
	})
	if m.Value() != "XabcY" {
		t.Fatalf("value = %q, want %q", m.Value(), "XabcY")
	}
	if count != 1 {
		t.Errorf("change events = %d, want 1", count)
	}
	if got := m.Position(); got != (Position{1, 2}) {
		t.Errorf("position = %v, want (1,2)", got)
	}

	m.Undo()
	if m.Value() != "abc" {
		t.Errorf("after undo value = %q, want %q", m.Value(), "abc")
	}
}

func TestExecuteEdits_Multiline(t *testing.T) {
	m := New("one\ntwo\nthree", Options{})
	m.ExecuteEdits("test", []EditOperation{{
		Range: NewRange(Position{1, 4}, Position{3, 1}),
		Text:  "-\n-",
	}})
	if m.Value() != "one-\n-three" {
		t.Fatalf("value = %q", m.Value())
	}
	if got := m.Position(); got != (Position{2, 2}) {
		t.Errorf("position = %v, want (2,2)", got)
	}
}

func TestExecuteEdits_NoopReturnsFalse(t *testing.T) {
	m := New("abc", Options{})
	count := 0
	m.OnDidChangeContent(func(ContentChangedEvent) { count++ })
	if m.ExecuteEdits("test", []EditOperation{{Range: NewRange(Position{1, 1}, Position{1, 2}), Text: "a"}}) {
		t.Fatal("identical replacement should not apply")
	}
	if m.ExecuteEdits("test", nil) {
		t.Fatal("empty batch should not apply")
	}
	if count != 0 || m.CanUndo() {
		t.Errorf("count = %d, canUndo = %v", count, m.CanUndo())
	}
}

func TestExecuteEdits_ClampsOutOfRange(t *testing.T) {
	m := New("ab", Options{})
	m.ExecuteEdits("test", []EditOperation{{Range: NewRange(Position{9, 9}, Position{9, 9}), Text: "!"}})
	if m.Value() != "ab!" {
		t.Fatalf("value = %q, want %q", m.Value(), "ab!")
	}
}

func TestExecuteEdits_UnicodeColumns(t *testing.T) {
	m := New("héllo", Options{})
	m.ExecuteEdits("test", []EditOperation{{Range: NewRange(Position{1, 3}, Position{1, 4}), Text: "L"}})
	if m.Value() != "héLlo" {
		t.Fatalf("value = %q", m.Value())
	}
	if got := m.ValueInRange(NewRange(Position{1, 2}, Position{1, 4})); got != "éL" {
		t.Errorf("value in range = %q, want %q", got, "éL")
	}
}

func TestUndoRedo(t *testing.T) {
	m := New("a", Options{})
	var last ContentChangedEvent
	m.OnDidChangeContent(func(ev ContentChangedEvent) { last = ev })

	m.ExecuteEdits("test", []EditOperation{{Range: NewRange(Position{1, 2}, Position{1, 2}), Text: "b"}})
	if !m.Undo() {
		t.Fatal("undo failed")
	}
	if m.Value() != "a" || !last.IsUndoing {
		t.Fatalf("after undo value = %q, undoing = %v", m.Value(), last.IsUndoing)
	}
	if !m.Redo() {
		t.Fatal("redo failed")
	}
	if m.Value() != "ab" || !last.IsRedoing {
		t.Fatalf("after redo value = %q, redoing = %v", m.Value(), last.IsRedoing)
	}
	if m.Redo() {
		t.Error("second redo should fail")
	}
}

func TestHistoryLimit(t *testing.T) {
	m := New("", Options{HistoryLimit: 2})
	for i := 0; i < 5; i++ {
		m.ExecuteEdits("test", []EditOperation{{Range: NewRange(Position{1, 99}, Position{1, 99}), Text: "x"}})
	}
	undone := 0
	for m.Undo() {
		undone++
	}
	if undone != 2 {
		t.Errorf("undone = %d, want 2", undone)
	}
	if m.Value() != "xxx" {
		t.Errorf("value = %q, want %q", m.Value(), "xxx")
	}
}

func TestSetValue_FlushClearsHistory(t *testing.T) {
	m := New("a", Options{})
	m.ExecuteEdits("test", []EditOperation{{Range: NewRange(Position{1, 2}, Position{1, 2}), Text: "b"}})
	var last ContentChangedEvent
	m.OnDidChangeContent(func(ev ContentChangedEvent) { last = ev })

	m.SetValue("new\ntext")
	if !last.IsFlush {
		t.Error("expected flush event")
	}
	if m.CanUndo() {
		t.Error("history should be cleared")
	}
	if m.Position() != (Position{1, 1}) {
		t.Errorf("position = %v, want (1,1)", m.Position())
	}
}

func TestListenerDispose(t *testing.T) {
	m := New("", Options{})
	count := 0
	d := m.OnDidChangeContent(func(ContentChangedEvent) { count++ })
	m.SetValue("a")
	d.Dispose()
	m.SetValue("b")
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestSetSelections_ClampsAndKeepsDirection(t *testing.T) {
	m := New("abc\nde", Options{})
	m.SetSelections([]Selection{NewSelection(Position{2, 9}, Position{1, 2})})
	s := m.Selections()[0]
	if s.Anchor() != (Position{2, 3}) || s.Active() != (Position{1, 2}) {
		t.Errorf("selection = %+v", s)
	}
	m.SetSelections(nil)
	if len(m.Selections()) != 1 {
		t.Error("empty selection list should be ignored")
	}
}

func TestHitTest(t *testing.T) {
	m := New("ab", Options{})
	tests := []struct {
		pos  Position
		want MouseTargetType
	}{
		{Position{1, 1}, MouseTargetContentText},
		{Position{1, 2}, MouseTargetContentText},
		{Position{1, 3}, MouseTargetContentEmpty},
		{Position{1, 8}, MouseTargetContentEmpty},
		{Position{2, 1}, MouseTargetUnknown},
		{Position{0, 1}, MouseTargetUnknown},
	}
	for _, tt := range tests {
		got := m.HitTest(tt.pos)
		if got.Type != tt.want {
			t.Errorf("HitTest(%v) = %v, want %v", tt.pos, got.Type, tt.want)
		}
	}
}

func TestThemes(t *testing.T) {
	m := New("", Options{})
	if err := m.SetTheme("nope"); !errors.Is(err, ErrUnknownTheme) {
		t.Fatalf("err = %v, want ErrUnknownTheme", err)
	}
	if err := m.DefineTheme("light", Theme{Base: "vs", Colors: map[string]string{"editor.background": "#ffffff"}}); err != nil {
		t.Fatal(err)
	}
	if err := m.SetTheme("light"); err != nil {
		t.Fatal(err)
	}
	name, theme, ok := m.Theme()
	if !ok || name != "light" || theme.Colors["editor.background"] != "#ffffff" {
		t.Errorf("theme = %q %+v %v", name, theme, ok)
	}
	if err := m.DefineTheme("", Theme{}); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestListenerPanicIsContained(t *testing.T) {
	m := New("- [ ] a", Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	var reported []*UnexpectedError
	m.OnUnexpectedError(func(e *UnexpectedError) { reported = append(reported, e) })
	m.OnDidChangeContent(func(ContentChangedEvent) { panic("first listener") })
	seen := 0
	m.OnDidChangeContent(func(ContentChangedEvent) { seen++ })
	m.OnKeyDown(func(*KeyEvent) { panic("key listener") })

	ev, _ := ParseKey("x")
	if !m.DispatchKey(&ev) {
		t.Fatal("default key action should still run")
	}
	if m.Value() != "x- [ ] a" {
		t.Errorf("value = %q", m.Value())
	}
	if seen != 1 {
		t.Errorf("later content listener ran %d times, want 1", seen)
	}
	if len(reported) != 2 || reported[0].Listener != ListenerKeyDown || reported[1].Listener != ListenerContentChange {
		t.Fatalf("reported = %+v", reported)
	}
	if !strings.Contains(reported[1].Error(), "first listener") {
		t.Errorf("error = %q", reported[1].Error())
	}
}

func TestSetEOL(t *testing.T) {
	m := New("a\nb", Options{})
	var events []ContentChangedEvent
	m.OnDidChangeContent(func(ev ContentChangedEvent) { events = append(events, ev) })

	if !m.SetEOL(EOLCRLF) {
		t.Fatal("SetEOL(CRLF) reported no change")
	}
	if m.Value() != "a\r\nb" {
		t.Errorf("value = %q", m.Value())
	}
	if m.SetEOL(EOLCRLF) || m.SetEOL(EndOfLineSequence(9)) {
		t.Error("unchanged or unknown terminator should be ignored")
	}
	if len(events) != 1 || !events[0].IsEOLChange || events[0].VersionID != m.Version() {
		t.Errorf("events = %+v", events)
	}
	if m.CanUndo() {
		t.Error("terminator change should not enter undo history")
	}
}
