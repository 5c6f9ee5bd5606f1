// Package models defines the domain types for Quire.
package models

import "time"

// Note is a parsed Markdown file in the vault.
type Note struct {
	Path        string         `json:"path"`
	Title       string         `json:"title,omitempty"`
	Content     string         `json:"content"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Tasks       []Task         `json:"tasks"`
	Checksum    string         `json:"checksum"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Task is one task-list line of a note.
type Task struct {
	Line    int    `json:"line"` // 1-based
	Indent  string `json:"indent,omitempty"`
	Marker  string `json:"marker"`
	Checked bool   `json:"checked"`
	Text    string `json:"text"`
}

// TaskSummary counts the tasks of a note.
type TaskSummary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// Summarize counts tasks and completed tasks.
func Summarize(tasks []Task) TaskSummary {
	s := TaskSummary{Total: len(tasks)}
	for _, t := range tasks {
		if t.Checked {
			s.Completed++
		}
	}
	return s
}
