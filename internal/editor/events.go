package editor

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// KeyCode identifies the physical key behind a KeyEvent.
type KeyCode int

const (
	KeyUnknown KeyCode = iota
	KeyEnter
	KeyBackspace
	KeyDelete
	KeyTab
	KeyBracketLeft
	// KeyCharacter is any other printable key; the event's Text holds it.
	KeyCharacter
)

// KeyEvent is delivered to key-down listeners before the model applies the
// key's default effect.
type KeyEvent struct {
	Code  KeyCode
	Text  string
	Shift bool
	Ctrl  bool
	Alt   bool
	Meta  bool

	defaultPrevented bool
}

// PreventDefault suppresses the model's default handling of the key.
func (e *KeyEvent) PreventDefault() { e.defaultPrevented = true }

func (e *KeyEvent) DefaultPrevented() bool { return e.defaultPrevented }

// ParseKey builds a KeyEvent from a key name. Named keys are Enter,
// Backspace, Delete and Tab; any single character is a printable key.
func ParseKey(name string) (KeyEvent, error) {
	switch strings.ToLower(name) {
	case "enter", "return":
		return KeyEvent{Code: KeyEnter, Text: "\n"}, nil
	case "backspace":
		return KeyEvent{Code: KeyBackspace}, nil
	case "delete":
		return KeyEvent{Code: KeyDelete}, nil
	case "tab":
		return KeyEvent{Code: KeyTab, Text: "\t"}, nil
	}
	if utf8.RuneCountInString(name) != 1 {
		return KeyEvent{}, fmt.Errorf("editor: unknown key %q", name)
	}
	if name == "[" {
		return KeyEvent{Code: KeyBracketLeft, Text: name}, nil
	}
	return KeyEvent{Code: KeyCharacter, Text: name}, nil
}

// MouseButton identifies the pressed pointer button.
type MouseButton int

const (
	MouseButtonPrimary MouseButton = iota
	MouseButtonMiddle
	MouseButtonSecondary
)

// MouseTargetType classifies the region a pointer event landed on.
type MouseTargetType int

const (
	MouseTargetUnknown MouseTargetType = iota
	MouseTargetGutterLineNumbers
	MouseTargetGutterLineDecorations
	MouseTargetContentText
	MouseTargetContentEmpty
)

func (t MouseTargetType) String() string {
	switch t {
	case MouseTargetGutterLineNumbers:
		return "gutter-line-numbers"
	case MouseTargetGutterLineDecorations:
		return "gutter-line-decorations"
	case MouseTargetContentText:
		return "content-text"
	case MouseTargetContentEmpty:
		return "content-empty"
	}
	return "unknown"
}

// MouseTarget is the resolved hit of a pointer event.
type MouseTarget struct {
	Type     MouseTargetType
	Position *Position
}

// MouseEvent is delivered to mouse-down listeners.
type MouseEvent struct {
	Button MouseButton
	Target MouseTarget

	defaultPrevented bool
}

// PreventDefault suppresses caret placement for the click.
func (e *MouseEvent) PreventDefault() { e.defaultPrevented = true }

func (e *MouseEvent) DefaultPrevented() bool { return e.defaultPrevented }

// ContentChange describes one replaced range within a content change.
type ContentChange struct {
	Range       Range  `json:"range"`
	RangeOffset int    `json:"rangeOffset"`
	RangeLength int    `json:"rangeLength"`
	Text        string `json:"text"`
}

// ContentChangedEvent is emitted once per effective mutation of the model.
type ContentChangedEvent struct {
	Changes   []ContentChange `json:"changes"`
	VersionID uint64          `json:"versionId"`
	Source    string          `json:"source,omitempty"`
	IsUndoing bool            `json:"isUndoing,omitempty"`
	IsRedoing bool            `json:"isRedoing,omitempty"`
	IsFlush   bool            `json:"isFlush,omitempty"`
	// IsEOLChange marks a change of the line terminator only.
	IsEOLChange bool `json:"isEolChange,omitempty"`
}

// Disposable detaches a listener.
type Disposable interface {
	Dispose()
}

// DisposeFunc adapts a function to Disposable.
type DisposeFunc func()

func (f DisposeFunc) Dispose() { f() }

// Disposables disposes each element in order.
type Disposables []Disposable

func (ds Disposables) Dispose() {
	for _, d := range ds {
		d.Dispose()
	}
}
