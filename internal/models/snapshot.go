package models

import "time"

// Snapshot is a saved copy of a note's content.
type Snapshot struct {
	ID          string    `json:"id"`
	NotePath    string    `json:"note_path"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content,omitempty"`
	CharCount   int       `json:"char_count"`
	Auto        bool      `json:"auto"`
	CreatedAt   time.Time `json:"created_at"`
}

// SnapshotDiff lists lines present in only one of two snapshots.
type SnapshotDiff struct {
	Additions []string `json:"additions"`
	Deletions []string `json:"deletions"`
}
