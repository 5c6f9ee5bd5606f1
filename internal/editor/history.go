package editor

import "strings"

type modelSnapshot struct {
	text       string
	selections []Selection
}

type history struct {
	undo []modelSnapshot
	redo []modelSnapshot
}

func (m *Model) snapshot() modelSnapshot {
	return modelSnapshot{
		text:       m.Value(),
		selections: m.Selections(),
	}
}

func (h *history) record(prev modelSnapshot, limit int) {
	if limit <= 0 {
		return
	}
	h.undo = append(h.undo, prev)
	if len(h.undo) > limit {
		h.undo = h.undo[len(h.undo)-limit:]
	}
	h.redo = nil
}

func (m *Model) CanUndo() bool { return len(m.hist.undo) > 0 }

func (m *Model) CanRedo() bool { return len(m.hist.redo) > 0 }

// Undo reverts the last ExecuteEdits step.
func (m *Model) Undo() bool {
	if len(m.hist.undo) == 0 {
		return false
	}
	i := len(m.hist.undo) - 1
	prev := m.hist.undo[i]
	m.hist.undo = m.hist.undo[:i]
	m.hist.redo = append(m.hist.redo, m.snapshot())
	m.restore(prev, "undo", true, false)
	return true
}

// Redo re-applies the last undone step.
func (m *Model) Redo() bool {
	if len(m.hist.redo) == 0 {
		return false
	}
	i := len(m.hist.redo) - 1
	next := m.hist.redo[i]
	m.hist.redo = m.hist.redo[:i]
	m.hist.undo = append(m.hist.undo, m.snapshot())
	m.restore(next, "redo", false, true)
	return true
}

// restore swaps in a snapshot as one full-document replacement so tracked
// decorations and listeners see an ordinary change.
func (m *Model) restore(s modelSnapshot, source string, undoing, redoing bool) {
	full := m.fullRange()
	change, _, ok := m.replace(EditOperation{Range: full, Text: strings.ReplaceAll(s.text, "\r\n", "\n")})
	m.SetSelections(s.selections)
	if !ok {
		return
	}
	m.version++
	m.emitChange(ContentChangedEvent{
		Changes:   []ContentChange{change},
		VersionID: m.version,
		Source:    source,
		IsUndoing: undoing,
		IsRedoing: redoing,
	})
}
