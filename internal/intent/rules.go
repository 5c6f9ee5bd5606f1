package intent

import (
	"strings"

	"github.com/starford/quire/internal/editor"
	"github.com/starford/quire/internal/tasklist"
)

// autoBracketDash turns "-" followed by "[" into an empty task marker.
func autoBracketDash(c keyContext) (editor.EditOperation, bool) {
	if c.ev.Code != editor.KeyBracketLeft || !strings.HasSuffix(c.before, "-") {
		return editor.EditOperation{}, false
	}
	return editor.EditOperation{
		Range: editor.NewRange(
			editor.Position{LineNumber: c.line, Column: c.column - 1},
			editor.Position{LineNumber: c.line, Column: c.column},
		),
		Text: "- [ ] ",
	}, true
}

// autoBracketDashSpace completes "- " followed by "[" into a task marker.
func autoBracketDashSpace(c keyContext) (editor.EditOperation, bool) {
	if c.ev.Code != editor.KeyBracketLeft || !strings.HasSuffix(c.before, "- ") {
		return editor.EditOperation{}, false
	}
	return editor.EditOperation{Range: c.caret(), Text: "[ ] "}, true
}

// emptyItemRemoval clears a list or task line that has a marker but no
// content, ending the list.
func emptyItemRemoval(c keyContext) (editor.EditOperation, bool) {
	if c.ev.Code != editor.KeyEnter {
		return editor.EditOperation{}, false
	}
	empty := tasklist.IsTaskListLine(c.content) && tasklist.IsEmptyTaskListLine(c.content)
	if !empty {
		item, ok := tasklist.ParseListItem(c.content)
		empty = ok && strings.TrimSpace(item.Content) == ""
	}
	if !empty {
		return editor.EditOperation{}, false
	}
	return editor.EditOperation{Range: c.wholeLine(), Text: ""}, true
}

// taskContinuation starts a new unchecked task below a task line, or splits
// the line when the caret is in the middle of the task text.
func taskContinuation(c keyContext) (editor.EditOperation, bool) {
	if c.ev.Code != editor.KeyEnter || !tasklist.IsTaskListLine(c.content) {
		return editor.EditOperation{}, false
	}
	if c.column <= tasklist.CheckboxEndPosition(c.content) {
		return editor.EditOperation{}, false
	}
	if c.atEnd() {
		return editor.EditOperation{
			Range: c.caret(),
			Text:  "\n" + tasklist.Indentation(c.content) + "- [ ] ",
		}, true
	}
	return splitLine(c), true
}

// listContinuation carries a bullet or numbered marker to the next line.
func listContinuation(c keyContext) (editor.EditOperation, bool) {
	if c.ev.Code != editor.KeyEnter {
		return editor.EditOperation{}, false
	}
	item, ok := tasklist.ParseListItem(c.content)
	if !ok {
		return editor.EditOperation{}, false
	}
	if c.atEnd() {
		return editor.EditOperation{
			Range: c.caret(),
			Text:  "\n" + item.Indent + tasklist.NextMarker(item.Marker) + " ",
		}, true
	}
	return splitLine(c), true
}

func splitLine(c keyContext) editor.EditOperation {
	return editor.EditOperation{Range: c.wholeLine(), Text: c.before + "\n" + c.after}
}

// checkboxToggle flips a task's state when the primary button lands on or
// next to the character between the checkbox brackets.
func (d *Dispatcher) checkboxToggle(ev *editor.MouseEvent) (editor.EditOperation, bool) {
	if ev.Button != editor.MouseButtonPrimary || ev.Target.Type != editor.MouseTargetContentText || ev.Target.Position == nil {
		return editor.EditOperation{}, false
	}
	p := *ev.Target.Position
	content := d.host.LineContent(p.LineNumber)
	col, ok := tasklist.CheckboxStateColumn(content)
	if !ok {
		return editor.EditOperation{}, false
	}
	if p.Column < col-d.tolerance || p.Column > col+d.tolerance {
		return editor.EditOperation{}, false
	}
	// Checking writes a lowercase x, so an X does not survive two toggles.
	state := "x"
	if tasklist.IsCheckedTask(content) {
		state = " "
	}
	return editor.EditOperation{
		Range: editor.NewRange(
			editor.Position{LineNumber: p.LineNumber, Column: col},
			editor.Position{LineNumber: p.LineNumber, Column: col + 1},
		),
		Text: state,
	}, true
}
