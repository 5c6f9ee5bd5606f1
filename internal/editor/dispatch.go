package editor

// DispatchKey delivers ev to key-down listeners in registration order and,
// unless one of them prevented the default, applies the key's default
// effect. It reports whether the default effect ran. A panicking listener
// is contained and the rest still run.
func (m *Model) DispatchKey(ev *KeyEvent) bool {
	for _, fn := range m.keyDown.snapshot() {
		m.guard(ListenerKeyDown, func() { fn(ev) })
	}
	if ev.DefaultPrevented() {
		return false
	}
	return m.defaultKey(ev)
}

// DispatchMouse delivers ev to mouse-down listeners and, unless prevented,
// places the caret for a primary click.
func (m *Model) DispatchMouse(ev *MouseEvent) bool {
	for _, fn := range m.mouseDown.snapshot() {
		m.guard(ListenerMouseDown, func() { fn(ev) })
	}
	if ev.DefaultPrevented() {
		return false
	}
	if ev.Button != MouseButtonPrimary || ev.Target.Position == nil {
		return false
	}
	m.SetPosition(*ev.Target.Position)
	return true
}

func (m *Model) defaultKey(ev *KeyEvent) bool {
	switch ev.Code {
	case KeyEnter:
		return m.typeText("\n")
	case KeyTab:
		return m.typeText("\t")
	case KeyBracketLeft, KeyCharacter:
		if ev.Ctrl || ev.Meta || ev.Text == "" {
			return false
		}
		return m.typeText(ev.Text)
	case KeyBackspace:
		return m.deleteAround(-1)
	case KeyDelete:
		return m.deleteAround(1)
	}
	return false
}

// typeText replaces every selection (or inserts at every caret) with text.
func (m *Model) typeText(text string) bool {
	edits := make([]EditOperation, 0, len(m.selections))
	for _, s := range m.selections {
		edits = append(edits, EditOperation{Range: s.Range(), Text: text})
	}
	return m.ExecuteEdits("keyboard", edits)
}

// deleteAround deletes the selection or one character before (dir < 0) or
// after (dir > 0) each caret, joining lines at line boundaries.
func (m *Model) deleteAround(dir int) bool {
	edits := make([]EditOperation, 0, len(m.selections))
	for _, s := range m.selections {
		if !s.IsEmpty() {
			edits = append(edits, EditOperation{Range: s.Range()})
			continue
		}
		p := s.Active()
		off := m.offsetAt(p)
		target := m.positionAt(off + dir)
		if target == p {
			continue
		}
		edits = append(edits, EditOperation{Range: NewRange(p, target).Normalize()})
	}
	return m.ExecuteEdits("keyboard", edits)
}
