// Package workspace defines the external coordinate model used by API and
// tool clients. Lines and characters are 0-based.
package workspace

// Position is a zero-based location in a document.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range spans two positions. Start <= End is not enforced.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

func (r Range) IsEmpty() bool { return r.Start == r.End }

// Selection is a directed range. Anchor stays put while Active moves with
// the caret; Active may precede Anchor.
type Selection struct {
	Anchor Position `json:"anchor"`
	Active Position `json:"active"`
}

// Start returns whichever end comes first in the document.
func (s Selection) Start() Position {
	if before(s.Active, s.Anchor) {
		return s.Active
	}
	return s.Anchor
}

// End returns whichever end comes last in the document.
func (s Selection) End() Position {
	if before(s.Active, s.Anchor) {
		return s.Anchor
	}
	return s.Active
}

func (s Selection) IsReversed() bool { return before(s.Active, s.Anchor) }

func before(a, b Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Character < b.Character
}

// EndOfLine is the external end-of-line enumeration.
type EndOfLine int

const (
	EndOfLineUnspecified EndOfLine = iota
	EndOfLineLF
	EndOfLineCRLF
)

func (e EndOfLine) String() string {
	switch e {
	case EndOfLineLF:
		return "lf"
	case EndOfLineCRLF:
		return "crlf"
	}
	return "unspecified"
}

func (e EndOfLine) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText accepts the forms ParseEndOfLine does; anything else
// decodes as EndOfLineUnspecified.
func (e *EndOfLine) UnmarshalText(b []byte) error {
	*e = ParseEndOfLine(string(b))
	return nil
}

// ParseEndOfLine maps "lf"/"crlf" to their values; anything else is
// EndOfLineUnspecified.
func ParseEndOfLine(s string) EndOfLine {
	switch s {
	case "lf", "LF", "\n":
		return EndOfLineLF
	case "crlf", "CRLF", "\r\n":
		return EndOfLineCRLF
	}
	return EndOfLineUnspecified
}

// TextEdit replaces the text in Range with NewText. A nil Range marks an
// edit that carries no location and cannot be applied.
type TextEdit struct {
	Range   *Range `json:"range,omitempty"`
	NewText string `json:"newText"`
}

// FileOperation is a resource-level change (create, rename, delete).
type FileOperation struct {
	Kind   string `json:"kind"`
	URI    string `json:"uri"`
	NewURI string `json:"newUri,omitempty"`
}

// WorkspaceEdit groups text edits per document with optional file
// operations.
type WorkspaceEdit struct {
	Changes    map[string][]TextEdit `json:"changes,omitempty"`
	Operations []FileOperation       `json:"operations,omitempty"`
}

// Edits returns the text edits for uri.
func (w *WorkspaceEdit) Edits(uri string) []TextEdit {
	if w == nil {
		return nil
	}
	return w.Changes[uri]
}
