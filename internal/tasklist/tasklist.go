// Package tasklist classifies single Markdown lines as list items and task-list
// items. All functions are pure and total over their input.
package tasklist

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	taskRe     = regexp.MustCompile(`^(\s*)(-|\*|\d+\.)\s+\[([ xX])\]`)
	listItemRe = regexp.MustCompile(`^(\s*)(-|\*|\d+\.)\s+(.*)$`)
	numberedRe = regexp.MustCompile(`^(\d+)\.$`)
	// indentRe uses the same whitespace class as the marker patterns.
	indentRe = regexp.MustCompile(`^\s*`)
)

// ListItem is a line matching the generic list-marker pattern.
type ListItem struct {
	Indent  string
	Marker  string
	Content string
}

// IsTaskListLine reports whether line starts with a list marker followed by a
// checkbox token.
func IsTaskListLine(line string) bool {
	return taskRe.MatchString(line)
}

// IsCheckedTask reports whether line is a task-list line whose checkbox holds x or X.
func IsCheckedTask(line string) bool {
	m := taskRe.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	return m[3] == "x" || m[3] == "X"
}

// IsEmptyTaskListLine reports whether line is a task-list line with nothing
// but whitespace after the checkbox.
func IsEmptyTaskListLine(line string) bool {
	loc := taskRe.FindStringIndex(line)
	if loc == nil {
		return false
	}
	return strings.TrimSpace(line[loc[1]:]) == ""
}

// Indentation returns the leading-whitespace prefix of line, the same
// prefix the list and task patterns capture.
func Indentation(line string) string {
	return indentRe.FindString(line)
}

// CheckboxEndPosition returns the 1-based column immediately after the
// closing ']' of the checkbox. It returns 0 when line is not a task-list line.
func CheckboxEndPosition(line string) int {
	loc := taskRe.FindStringIndex(line)
	if loc == nil {
		return 0
	}
	// The matched prefix is ASCII, so byte length equals column count.
	return loc[1] + 1
}

// CheckboxStateColumn returns the 1-based column of the character between the
// checkbox brackets.
func CheckboxStateColumn(line string) (int, bool) {
	m := taskRe.FindStringSubmatchIndex(line)
	if m == nil {
		return 0, false
	}
	// m[6] is the 0-based byte offset of the state token.
	return m[6] + 1, true
}

// ToggleCheckbox flips the checkbox state of a task-list line, rewriting only
// the state character. Checking always writes a lowercase x, so a line
// checked with X comes back as x after two toggles; every other line
// round-trips unchanged.
func ToggleCheckbox(line string) (string, bool) {
	m := taskRe.FindStringSubmatchIndex(line)
	if m == nil {
		return line, false
	}
	next := "x"
	if IsCheckedTask(line) {
		next = " "
	}
	return line[:m[6]] + next + line[m[7]:], true
}

// ParseListItem matches line against the generic list-marker pattern.
func ParseListItem(line string) (ListItem, bool) {
	m := listItemRe.FindStringSubmatch(line)
	if m == nil {
		return ListItem{}, false
	}
	return ListItem{Indent: m[1], Marker: m[2], Content: m[3]}, true
}

// NextMarker returns the marker for the item following one with marker.
// Numbered markers are incremented; bullets repeat.
func NextMarker(marker string) string {
	m := numberedRe.FindStringSubmatch(marker)
	if m == nil {
		return marker
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return marker
	}
	return strconv.Itoa(n+1) + "."
}
