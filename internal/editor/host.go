// Package editor defines the capability surface the editing behaviors need
// from a host text editor, and Model, an in-memory host implementing it.
package editor

// TextModel gives read access to the buffer.
type TextModel interface {
	Value() string
	LineCount() int
	// LineContent returns the text of a 1-based line without its terminator.
	LineContent(lineNumber int) string
}

// CursorState exposes the caret and the selections.
type CursorState interface {
	Position() Position
	Selections() []Selection
}

// Mutator applies edits as one undoable step.
type Mutator interface {
	ExecuteEdits(source string, edits []EditOperation) bool
}

// EventSource lets behaviors observe input and content changes.
type EventSource interface {
	OnKeyDown(fn func(*KeyEvent)) Disposable
	OnMouseDown(fn func(*MouseEvent)) Disposable
	OnDidChangeContent(fn func(ContentChangedEvent)) Disposable
}

// Decorator manages tracked visual decorations.
type Decorator interface {
	DeltaDecorations(oldIDs []string, specs []DecorationSpec) []string
	AllDecorations() []Decoration
}

// Themer registers and activates color themes.
type Themer interface {
	DefineTheme(name string, theme Theme) error
	SetTheme(name string) error
}

// Host is the full capability surface of a host editor.
type Host interface {
	TextModel
	CursorState
	Mutator
	EventSource
	Decorator
	Themer
}

var _ Host = (*Model)(nil)
