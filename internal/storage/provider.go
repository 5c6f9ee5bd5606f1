// Package storage defines the vault file-system abstraction.
package storage

import (
	"errors"

	"github.com/starford/quire/internal/models"
)

// ErrNotNote is returned for paths that do not name a Markdown note.
var ErrNotNote = errors.New("storage: not a markdown note")

// Provider is the interface for vault file operations. Paths are relative
// to the vault root.
type Provider interface {
	// List returns metadata for every note under dir, ordered by path.
	List(dir string) ([]models.NoteMetadata, error)
	Read(path string) ([]byte, error)
	// Write atomically replaces the note at path.
	Write(path string, content []byte) error
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
	// Abs resolves path to its location on disk.
	Abs(path string) (string, error)
}
