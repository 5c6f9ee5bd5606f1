package editor

import "testing"

func press(t *testing.T, m *Model, key string) bool {
	t.Helper()
	ev, err := ParseKey(key)
	if err != nil {
		t.Fatal(err)
	}
	return m.DispatchKey(&ev)
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		in   string
		want KeyCode
	}{
		{"Enter", KeyEnter},
		{"return", KeyEnter},
		{"Backspace", KeyBackspace},
		{"delete", KeyDelete},
		{"Tab", KeyTab},
		{"[", KeyBracketLeft},
		{"x", KeyCharacter},
		{"é", KeyCharacter},
	}
	for _, tt := range tests {
		ev, err := ParseKey(tt.in)
		if err != nil {
			t.Fatalf("ParseKey(%q): %v", tt.in, err)
		}
		if ev.Code != tt.want {
			t.Errorf("ParseKey(%q).Code = %v, want %v", tt.in, ev.Code, tt.want)
		}
	}
	if _, err := ParseKey("F13x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestDispatchKey_Typing(t *testing.T) {
	m := New("ab", Options{})
	m.SetPosition(Position{1, 3})
	press(t, m, "c")
	if m.Value() != "abc" {
		t.Fatalf("value = %q, want %q", m.Value(), "abc")
	}
	m.SetPosition(Position{1, 2})
	press(t, m, "Enter")
	if m.Value() != "a\nbc" {
		t.Fatalf("value = %q", m.Value())
	}
	if m.Position() != (Position{2, 1}) {
		t.Errorf("position = %v, want (2,1)", m.Position())
	}
}

func TestDispatchKey_ReplacesSelection(t *testing.T) {
	m := New("hello", Options{})
	m.SetSelections([]Selection{NewSelection(Position{1, 1}, Position{1, 6})})
	press(t, m, "x")
	if m.Value() != "x" {
		t.Errorf("value = %q, want %q", m.Value(), "x")
	}
}

func TestDispatchKey_BackspaceDelete(t *testing.T) {
	m := New("a\nb", Options{})
	m.SetPosition(Position{2, 1})
	press(t, m, "Backspace")
	if m.Value() != "ab" || m.Position() != (Position{1, 2}) {
		t.Fatalf("value = %q position = %v", m.Value(), m.Position())
	}

	m = New("a\nb", Options{})
	m.SetPosition(Position{1, 2})
	press(t, m, "Delete")
	if m.Value() != "ab" {
		t.Fatalf("value = %q, want %q", m.Value(), "ab")
	}

	m = New("a", Options{})
	m.SetPosition(Position{1, 1})
	if press(t, m, "Backspace") {
		t.Error("backspace at document start should be a no-op")
	}
}

func TestDispatchKey_PreventDefault(t *testing.T) {
	m := New("ab", Options{})
	var seen []KeyCode
	m.OnKeyDown(func(ev *KeyEvent) {
		seen = append(seen, ev.Code)
		ev.PreventDefault()
	})
	if press(t, m, "x") {
		t.Error("default should not run")
	}
	if m.Value() != "ab" {
		t.Errorf("value = %q, want unchanged", m.Value())
	}
	if len(seen) != 1 || seen[0] != KeyCharacter {
		t.Errorf("seen = %v", seen)
	}
}

func TestDispatchMouse(t *testing.T) {
	m := New("abc", Options{})
	target := m.HitTest(Position{1, 2})
	ev := MouseEvent{Button: MouseButtonPrimary, Target: target}
	if !m.DispatchMouse(&ev) {
		t.Fatal("expected default caret placement")
	}
	if m.Position() != (Position{1, 2}) {
		t.Errorf("position = %v, want (1,2)", m.Position())
	}

	m.OnMouseDown(func(ev *MouseEvent) { ev.PreventDefault() })
	target = m.HitTest(Position{1, 4})
	ev = MouseEvent{Button: MouseButtonPrimary, Target: target}
	if m.DispatchMouse(&ev) {
		t.Error("prevented click should not move the caret")
	}
	if m.Position() != (Position{1, 2}) {
		t.Errorf("position = %v, want (1,2)", m.Position())
	}
}
