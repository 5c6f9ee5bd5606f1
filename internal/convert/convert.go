// Package convert translates between host editor coordinates (1-based
// line/column) and workspace coordinates (0-based line/character).
//
// Every function is total: invalid or negative inputs are shifted by one
// like any other value and are never rejected.
package convert

import (
	"errors"

	"github.com/starford/quire/internal/editor"
	"github.com/starford/quire/internal/workspace"
)

// ErrResourceEdit is returned when a workspace edit carries file operations,
// which cannot be expressed as text edits.
var ErrResourceEdit = errors.New("convert: resource edits are not supported")

// LineTo converts a 1-based host line number to a 0-based workspace line.
func LineTo(lineNumber int) int { return lineNumber - 1 }

// LineFrom converts a 0-based workspace line to a 1-based host line number.
func LineFrom(line int) int { return line + 1 }

// LinesTo converts host line numbers in order; nil maps to nil.
func LinesTo(lineNumbers []int) []int {
	if lineNumbers == nil {
		return nil
	}
	out := make([]int, len(lineNumbers))
	for i, n := range lineNumbers {
		out[i] = LineTo(n)
	}
	return out
}

func PositionTo(p editor.Position) workspace.Position {
	return workspace.Position{Line: LineTo(p.LineNumber), Character: p.Column - 1}
}

func PositionFrom(p workspace.Position) editor.Position {
	return editor.Position{LineNumber: LineFrom(p.Line), Column: p.Character + 1}
}

// RangeTo converts a host range; nil maps to nil.
func RangeTo(r *editor.Range) *workspace.Range {
	if r == nil {
		return nil
	}
	return &workspace.Range{
		Start: PositionTo(r.Start()),
		End:   PositionTo(r.End()),
	}
}

// RangeFrom converts a workspace range; nil maps to nil.
func RangeFrom(r *workspace.Range) *editor.Range {
	if r == nil {
		return nil
	}
	out := editor.NewRange(PositionFrom(r.Start), PositionFrom(r.End))
	return &out
}

// SelectionTo keeps the direction: the host selection start becomes the
// anchor and the host position becomes the active end.
func SelectionTo(s editor.Selection) workspace.Selection {
	return workspace.Selection{
		Anchor: PositionTo(s.Anchor()),
		Active: PositionTo(s.Active()),
	}
}

func SelectionFrom(s workspace.Selection) editor.Selection {
	return editor.NewSelection(PositionFrom(s.Anchor), PositionFrom(s.Active))
}

func SelectionsTo(sels []editor.Selection) []workspace.Selection {
	if sels == nil {
		return nil
	}
	out := make([]workspace.Selection, len(sels))
	for i, s := range sels {
		out[i] = SelectionTo(s)
	}
	return out
}

func SelectionsFrom(sels []workspace.Selection) []editor.Selection {
	if sels == nil {
		return nil
	}
	out := make([]editor.Selection, len(sels))
	for i, s := range sels {
		out[i] = SelectionFrom(s)
	}
	return out
}

// EndOfLineTo maps the host sequence to the workspace enumeration. Unknown
// host values report false.
func EndOfLineTo(e editor.EndOfLineSequence) (workspace.EndOfLine, bool) {
	switch e {
	case editor.EOLLF:
		return workspace.EndOfLineLF, true
	case editor.EOLCRLF:
		return workspace.EndOfLineCRLF, true
	}
	return workspace.EndOfLineUnspecified, false
}

// EndOfLineFrom maps the workspace enumeration to the host sequence.
// Unspecified and unknown values report false.
func EndOfLineFrom(e workspace.EndOfLine) (editor.EndOfLineSequence, bool) {
	switch e {
	case workspace.EndOfLineLF:
		return editor.EOLLF, true
	case workspace.EndOfLineCRLF:
		return editor.EOLCRLF, true
	}
	return 0, false
}

// TextEditsFrom converts located text edits into host edit operations.
// Edits without a range are skipped.
func TextEditsFrom(edits []workspace.TextEdit) []editor.EditOperation {
	out := make([]editor.EditOperation, 0, len(edits))
	for _, e := range edits {
		r := RangeFrom(e.Range)
		if r == nil {
			continue
		}
		out = append(out, editor.EditOperation{Range: *r, Text: e.NewText})
	}
	return out
}

// WorkspaceEditFrom extracts the host edit operations for one document.
func WorkspaceEditFrom(w *workspace.WorkspaceEdit, uri string) ([]editor.EditOperation, error) {
	if w == nil {
		return nil, nil
	}
	if len(w.Operations) > 0 {
		return nil, ErrResourceEdit
	}
	return TextEditsFrom(w.Edits(uri)), nil
}
