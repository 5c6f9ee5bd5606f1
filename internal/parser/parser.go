// Package parser extracts frontmatter, title and tasks from Markdown notes.
package parser

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/tasklist"
)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	Body        string
	// BodyLine is the 1-based line of the file where Body starts.
	BodyLine int
	Title    string
	Tasks    []models.Task
}

// Parse extracts frontmatter, body, title and task-list items.
func Parse(data []byte) (*Result, error) {
	fm, body := splitFrontmatter(data)
	bodyLine := 1 + bytes.Count(data[:len(data)-len(body)], []byte("\n"))

	return &Result{
		Frontmatter: fm,
		Body:        body,
		BodyLine:    bodyLine,
		Title:       deriveTitle(fm, body),
		Tasks:       Tasks(body, bodyLine),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the body. Without valid frontmatter the whole input is body. The
// returned body is always a suffix of data.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, string(data)
	}
	return fm, body
}

// Tasks enumerates task-list lines of text. firstLine is the file line
// number of text's first line.
func Tasks(text string, firstLine int) []models.Task {
	var out []models.Task
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !tasklist.IsTaskListLine(line) {
			continue
		}
		item, _ := tasklist.ParseListItem(line)
		end := tasklist.CheckboxEndPosition(line) - 1
		out = append(out, models.Task{
			Line:    firstLine + i,
			Indent:  item.Indent,
			Marker:  item.Marker,
			Checked: tasklist.IsCheckedTask(line),
			Text:    strings.TrimSpace(line[end:]),
		})
	}
	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the
// first H1 heading, otherwise "".
func deriveTitle(fm map[string]any, body string) string {
	if fm != nil {
		if s, ok := fm["title"].(string); ok && s != "" {
			return s
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// DeriveTitle is the title of a note's content, falling back to fallback
// when the note has none.
func DeriveTitle(content, fallback string) string {
	fm, body := splitFrontmatter([]byte(content))
	if t := deriveTitle(fm, body); t != "" {
		return t
	}
	return fallback
}
