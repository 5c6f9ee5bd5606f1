package editor

import "fmt"

// Position is a caret location in host coordinates.
// LineNumber and Column are 1-based; Column counts runes.
type Position struct {
	LineNumber int `json:"lineNumber"`
	Column     int `json:"column"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.LineNumber, p.Column)
}

// ComparePositions returns -1, 0 or 1 depending on document order.
func ComparePositions(a, b Position) int {
	switch {
	case a.LineNumber < b.LineNumber:
		return -1
	case a.LineNumber > b.LineNumber:
		return 1
	case a.Column < b.Column:
		return -1
	case a.Column > b.Column:
		return 1
	}
	return 0
}

// Range spans two host positions. Start <= End is not enforced.
type Range struct {
	StartLineNumber int `json:"startLineNumber"`
	StartColumn     int `json:"startColumn"`
	EndLineNumber   int `json:"endLineNumber"`
	EndColumn       int `json:"endColumn"`
}

// NewRange builds a Range from two positions.
func NewRange(start, end Position) Range {
	return Range{
		StartLineNumber: start.LineNumber,
		StartColumn:     start.Column,
		EndLineNumber:   end.LineNumber,
		EndColumn:       end.Column,
	}
}

func (r Range) Start() Position {
	return Position{LineNumber: r.StartLineNumber, Column: r.StartColumn}
}

func (r Range) End() Position {
	return Position{LineNumber: r.EndLineNumber, Column: r.EndColumn}
}

func (r Range) IsEmpty() bool {
	return r.Start() == r.End()
}

// Normalize returns r with Start before End in document order.
func (r Range) Normalize() Range {
	if ComparePositions(r.Start(), r.End()) <= 0 {
		return r
	}
	return NewRange(r.End(), r.Start())
}

// Selection is a directed range: the selection start is where the user
// anchored, the position is where the caret sits.
type Selection struct {
	SelectionStartLineNumber int `json:"selectionStartLineNumber"`
	SelectionStartColumn     int `json:"selectionStartColumn"`
	PositionLineNumber       int `json:"positionLineNumber"`
	PositionColumn           int `json:"positionColumn"`
}

// NewSelection builds a selection from its anchor and active ends.
func NewSelection(anchor, active Position) Selection {
	return Selection{
		SelectionStartLineNumber: anchor.LineNumber,
		SelectionStartColumn:     anchor.Column,
		PositionLineNumber:       active.LineNumber,
		PositionColumn:           active.Column,
	}
}

func (s Selection) Anchor() Position {
	return Position{LineNumber: s.SelectionStartLineNumber, Column: s.SelectionStartColumn}
}

func (s Selection) Active() Position {
	return Position{LineNumber: s.PositionLineNumber, Column: s.PositionColumn}
}

func (s Selection) IsEmpty() bool {
	return s.Anchor() == s.Active()
}

// Range returns the selection as a forward range.
func (s Selection) Range() Range {
	return NewRange(s.Anchor(), s.Active()).Normalize()
}

// EndOfLineSequence is the line terminator used when serializing the model.
type EndOfLineSequence int

const (
	EOLLF EndOfLineSequence = iota
	EOLCRLF
)

// Sequence returns the terminator characters, or "" for an unknown value.
func (e EndOfLineSequence) Sequence() string {
	switch e {
	case EOLLF:
		return "\n"
	case EOLCRLF:
		return "\r\n"
	}
	return ""
}

func (e EndOfLineSequence) String() string {
	switch e {
	case EOLLF:
		return "LF"
	case EOLCRLF:
		return "CRLF"
	}
	return fmt.Sprintf("EndOfLineSequence(%d)", int(e))
}

func (e EndOfLineSequence) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// EditOperation replaces the text in Range with Text. Text may contain
// line breaks.
type EditOperation struct {
	Range            Range  `json:"range"`
	Text             string `json:"text"`
	ForceMoveMarkers bool   `json:"forceMoveMarkers,omitempty"`
}
