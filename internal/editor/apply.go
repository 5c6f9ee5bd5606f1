package editor

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// ExecuteEdits applies edits as a single undoable step and reports whether
// the text changed.
//
// Ranges are clamped into the document and interpreted against the text as
// it was before the call. Edits are applied from the end of the document
// backwards so earlier ranges stay valid. The caret moves to the end of the
// edit nearest the start of the document; selections collapse onto it.
// One content-change event is emitted for the whole batch.
func (m *Model) ExecuteEdits(source string, edits []EditOperation) bool {
	if len(edits) == 0 {
		return false
	}

	ordered := make([]EditOperation, len(edits))
	for i, e := range edits {
		e.Range = m.clampRange(e.Range).Normalize()
		e.Text = strings.ReplaceAll(e.Text, "\r\n", "\n")
		ordered[i] = e
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ComparePositions(ordered[i].Range.Start(), ordered[j].Range.Start()) > 0
	})

	prev := m.snapshot()
	var changes []ContentChange
	var caret Position
	for _, e := range ordered {
		change, end, ok := m.replace(e)
		if !ok {
			continue
		}
		changes = append(changes, change)
		caret = end
	}
	if len(changes) == 0 {
		return false
	}

	m.selections = []Selection{NewSelection(caret, caret)}
	m.version++
	m.hist.record(prev, m.opt.HistoryLimit)
	m.emitChange(ContentChangedEvent{
		Changes:   changes,
		VersionID: m.version,
		Source:    source,
	})
	return true
}

// replace applies one normalized, clamped edit and returns its change record
// and the position right after the inserted text.
func (m *Model) replace(e EditOperation) (ContentChange, Position, bool) {
	r := e.Range
	deleted := m.textIn(r)
	if deleted == e.Text {
		return ContentChange{}, Position{}, false
	}

	delStart := m.offsetAt(r.Start())
	delEnd := m.offsetAt(r.End())
	tracked := m.captureDecorations()

	startLine := m.lines[r.StartLineNumber-1]
	endLine := m.lines[r.EndLineNumber-1]
	prefix := startLine[:byteIndex(startLine, r.StartColumn-1)]
	suffix := endLine[byteIndex(endLine, r.EndColumn-1):]

	repl := strings.Split(e.Text, "\n")
	repl[0] = prefix + repl[0]
	last := len(repl) - 1
	end := Position{
		LineNumber: r.StartLineNumber + last,
		Column:     utf8.RuneCountInString(repl[last]) + 1,
	}
	repl[last] += suffix

	out := make([]string, 0, len(m.lines)-(r.EndLineNumber-r.StartLineNumber)+last)
	out = append(out, m.lines[:r.StartLineNumber-1]...)
	out = append(out, repl...)
	out = append(out, m.lines[r.EndLineNumber:]...)
	m.lines = out

	m.shiftDecorations(tracked, delStart, delEnd, utf8.RuneCountInString(e.Text), e.ForceMoveMarkers)

	return ContentChange{
		Range:       r,
		RangeOffset: delStart,
		RangeLength: delEnd - delStart,
		Text:        e.Text,
	}, end, true
}

// textIn returns the text of a normalized, clamped range using "\n" breaks.
func (m *Model) textIn(r Range) string {
	if r.IsEmpty() {
		return ""
	}
	if r.StartLineNumber == r.EndLineNumber {
		line := m.lines[r.StartLineNumber-1]
		return line[byteIndex(line, r.StartColumn-1):byteIndex(line, r.EndColumn-1)]
	}

	var sb strings.Builder
	for n := r.StartLineNumber; n <= r.EndLineNumber; n++ {
		line := m.lines[n-1]
		from, to := 0, len(line)
		if n == r.StartLineNumber {
			from = byteIndex(line, r.StartColumn-1)
		}
		if n == r.EndLineNumber {
			to = byteIndex(line, r.EndColumn-1)
		}
		if n > r.StartLineNumber {
			sb.WriteByte('\n')
		}
		sb.WriteString(line[from:to])
	}
	return sb.String()
}

// ValueInRange returns the text covered by r, clamped into the document.
func (m *Model) ValueInRange(r Range) string {
	return m.textIn(m.clampRange(r).Normalize())
}
