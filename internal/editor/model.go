package editor

import (
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Options configures a Model.
type Options struct {
	HistoryLimit int // default: 1000
	// EOL overrides the detected end-of-line sequence.
	EOL *EndOfLineSequence
	// LanguageID tags the model for tokenization lookups.
	LanguageID string
	// Logger receives contained listener panics; default slog.Default().
	Logger *slog.Logger
}

type listeners[T any] struct {
	next  int
	items []listenerEntry[T]
}

type listenerEntry[T any] struct {
	id int
	fn T
}

func (l *listeners[T]) add(fn T) Disposable {
	l.next++
	id := l.next
	l.items = append(l.items, listenerEntry[T]{id: id, fn: fn})
	return DisposeFunc(func() {
		for i, e := range l.items {
			if e.id == id {
				l.items = append(l.items[:i:i], l.items[i+1:]...)
				return
			}
		}
	})
}

func (l *listeners[T]) snapshot() []T {
	out := make([]T, len(l.items))
	for i, e := range l.items {
		out[i] = e.fn
	}
	return out
}

// Model is an in-memory host editor: line storage, caret and selections,
// edit application with undo, event emission, tracked decorations and a
// theme registry.
//
// Model is not safe for concurrent use; callers serialize access.
type Model struct {
	lines   []string
	eol     EndOfLineSequence
	version uint64
	lang    string

	selections []Selection

	opt  Options
	hist history

	decos  decorationSet
	themes themeRegistry

	keyDown       listeners[func(*KeyEvent)]
	mouseDown     listeners[func(*MouseEvent)]
	contentChange listeners[func(ContentChangedEvent)]
	unexpected    listeners[func(*UnexpectedError)]
}

// New creates a model holding text. The end-of-line sequence is detected
// from text unless opt.EOL is set.
func New(text string, opt Options) *Model {
	if opt.HistoryLimit == 0 {
		opt.HistoryLimit = 1000
	}
	eol := EOLLF
	if strings.Contains(text, "\r\n") {
		eol = EOLCRLF
	}
	if opt.EOL != nil {
		eol = *opt.EOL
	}
	return &Model{
		lines:      splitLines(text),
		eol:        eol,
		lang:       opt.LanguageID,
		selections: []Selection{NewSelection(Position{1, 1}, Position{1, 1})},
		opt:        opt,
	}
}

// Value returns the full text joined with the model's end-of-line sequence.
func (m *Model) Value() string {
	return strings.Join(m.lines, m.eol.Sequence())
}

// SetValue replaces the whole text. It clears undo history, resets the
// caret to the start and emits a flush change.
func (m *Model) SetValue(text string) {
	prev := m.fullRange()
	prevLen := m.offsetAt(prev.End())
	m.lines = splitLines(text)
	m.selections = []Selection{NewSelection(Position{1, 1}, Position{1, 1})}
	m.hist = history{}
	for _, d := range m.decos.items {
		d.Range = m.clampRange(d.Range)
	}
	m.version++
	m.emitChange(ContentChangedEvent{
		Changes: []ContentChange{{
			Range:       prev,
			RangeOffset: 0,
			RangeLength: prevLen,
			Text:        m.Value(),
		}},
		VersionID: m.version,
		Source:    "setValue",
		IsFlush:   true,
	})
}

func (m *Model) Version() uint64 { return m.version }

func (m *Model) LanguageID() string { return m.lang }

func (m *Model) EOL() EndOfLineSequence { return m.eol }

// SetEOL changes the serialization terminator and emits a change event
// flagged IsEOLChange. Unknown or unchanged values are ignored. The change
// is not recorded in undo history.
func (m *Model) SetEOL(eol EndOfLineSequence) bool {
	if eol.Sequence() == "" || eol == m.eol {
		return false
	}
	m.eol = eol
	m.version++
	m.emitChange(ContentChangedEvent{
		VersionID:   m.version,
		Source:      "setEOL",
		IsEOLChange: true,
	})
	return true
}

func (m *Model) LineCount() int { return len(m.lines) }

// LineContent returns the text of the given 1-based line, or "" when the
// line does not exist.
func (m *Model) LineContent(lineNumber int) string {
	if lineNumber < 1 || lineNumber > len(m.lines) {
		return ""
	}
	return m.lines[lineNumber-1]
}

// LineMaxColumn returns the column just past the last character of a line.
func (m *Model) LineMaxColumn(lineNumber int) int {
	return utf8.RuneCountInString(m.LineContent(lineNumber)) + 1
}

// Position returns the caret of the primary selection.
func (m *Model) Position() Position {
	return m.selections[0].Active()
}

// SetPosition collapses all selections to a single caret at p.
func (m *Model) SetPosition(p Position) {
	p = m.clampPosition(p)
	m.selections = []Selection{NewSelection(p, p)}
}

// Selections returns all selections; the first is primary.
func (m *Model) Selections() []Selection {
	return append([]Selection(nil), m.selections...)
}

// SetSelections replaces the selections. An empty slice is ignored.
func (m *Model) SetSelections(sels []Selection) {
	if len(sels) == 0 {
		return
	}
	out := make([]Selection, len(sels))
	for i, s := range sels {
		out[i] = NewSelection(m.clampPosition(s.Anchor()), m.clampPosition(s.Active()))
	}
	m.selections = out
}

// HitTest resolves a document position to the content region it falls on.
func (m *Model) HitTest(p Position) MouseTarget {
	if p.LineNumber < 1 || p.LineNumber > len(m.lines) || p.Column < 1 {
		return MouseTarget{Type: MouseTargetUnknown}
	}
	clamped := m.clampPosition(p)
	if p.Column >= m.LineMaxColumn(p.LineNumber) {
		return MouseTarget{Type: MouseTargetContentEmpty, Position: &clamped}
	}
	return MouseTarget{Type: MouseTargetContentText, Position: &clamped}
}

func (m *Model) OnKeyDown(fn func(*KeyEvent)) Disposable {
	return m.keyDown.add(fn)
}

func (m *Model) OnMouseDown(fn func(*MouseEvent)) Disposable {
	return m.mouseDown.add(fn)
}

func (m *Model) OnDidChangeContent(fn func(ContentChangedEvent)) Disposable {
	return m.contentChange.add(fn)
}

func (m *Model) emitChange(ev ContentChangedEvent) {
	for _, fn := range m.contentChange.snapshot() {
		m.guard(ListenerContentChange, func() { fn(ev) })
	}
}

func (m *Model) fullRange() Range {
	last := len(m.lines)
	return Range{
		StartLineNumber: 1,
		StartColumn:     1,
		EndLineNumber:   last,
		EndColumn:       m.LineMaxColumn(last),
	}
}

func (m *Model) clampPosition(p Position) Position {
	line := clampInt(p.LineNumber, 1, len(m.lines))
	col := clampInt(p.Column, 1, m.LineMaxColumn(line))
	return Position{LineNumber: line, Column: col}
}

func (m *Model) clampRange(r Range) Range {
	return NewRange(m.clampPosition(r.Start()), m.clampPosition(r.End()))
}

// offsetAt converts a position to a rune offset from the start of the text,
// counting one rune per line break.
func (m *Model) offsetAt(p Position) int {
	p = m.clampPosition(p)
	off := 0
	for i := 0; i < p.LineNumber-1; i++ {
		off += utf8.RuneCountInString(m.lines[i]) + 1
	}
	return off + p.Column - 1
}

func (m *Model) positionAt(off int) Position {
	if off < 0 {
		off = 0
	}
	for i, line := range m.lines {
		n := utf8.RuneCountInString(line)
		if off <= n {
			return Position{LineNumber: i + 1, Column: off + 1}
		}
		off -= n + 1
	}
	last := len(m.lines)
	return Position{LineNumber: last, Column: m.LineMaxColumn(last)}
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// byteIndex returns the byte offset of the col-th rune (0-based) of s,
// clamped to len(s).
func byteIndex(s string, col int) int {
	if col <= 0 {
		return 0
	}
	n := 0
	for i := range s {
		if n == col {
			return i
		}
		n++
	}
	return len(s)
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
