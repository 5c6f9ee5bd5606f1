// Package noteservice coordinates the vault, the note index, open editing
// sessions and snapshots. Note operations go through the open session when
// there is one so that its buffer, decorations and undo history stay
// authoritative.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/checksum"
	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/parser"
	"github.com/starford/quire/internal/session"
	"github.com/starford/quire/internal/snapshot"
	"github.com/starford/quire/internal/storage"
	"github.com/starford/quire/internal/tasklist"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path        string             `json:"path"`
	Title       string             `json:"title"`
	Content     string             `json:"content"`
	Checksum    string             `json:"checksum"`
	Frontmatter map[string]any     `json:"frontmatter,omitempty"`
	Tasks       []models.Task      `json:"tasks"`
	Summary     models.TaskSummary `json:"summary"`
	SessionID   string             `json:"session_id,omitempty"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path      string             `json:"path"`
	Title     string             `json:"title"`
	Checksum  string             `json:"checksum"`
	Summary   models.TaskSummary `json:"summary"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Service coordinates storage, index, sessions and snapshots.
type Service struct {
	store    storage.Provider
	db       index.NoteIndex
	sessions *session.Manager
	snaps    snapshot.Store
}

// NewService creates a note service. sessions and snaps may be nil.
func NewService(store storage.Provider, db index.NoteIndex, sessions *session.Manager, snaps snapshot.Store) *Service {
	return &Service{store: store, db: db, sessions: sessions, snaps: snaps}
}

// Sessions returns the session manager, or nil.
func (s *Service) Sessions() *session.Manager { return s.sessions }

// Snapshots returns the snapshot store, or nil.
func (s *Service) Snapshots() snapshot.Store { return s.snaps }

func (s *Service) open(path string) (*session.Session, bool) {
	if s.sessions == nil {
		return nil, false
	}
	return s.sessions.ByPath(path)
}

// read maps storage errors onto apperr sentinels.
func (s *Service) read(path string) ([]byte, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, mapStorageErr(path, err)
	}
	return data, nil
}

func mapStorageErr(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("note %s: %w", path, apperr.ErrNotFound)
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("note %s: %w", path, apperr.ErrAlreadyExists)
	case errors.Is(err, storage.ErrNotNote):
		return fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}
	return err
}

// content returns the live text of a note: the open session's buffer, or
// the vault file.
func (s *Service) content(path string) (string, string, error) {
	if sess, ok := s.open(path); ok {
		st, err := sess.State()
		if err == nil {
			return st.Text, sess.ID(), nil
		}
	}
	data, err := s.read(path)
	if err != nil {
		return "", "", err
	}
	return string(data), "", nil
}

// GetNote returns a note with its tasks.
func (s *Service) GetNote(_ context.Context, path string) (*NoteDetail, error) {
	text, sid, err := s.content(path)
	if err != nil {
		return nil, err
	}
	d, err := buildNoteDetail(path, []byte(text))
	if err != nil {
		return nil, err
	}
	d.SessionID = sid
	return d, nil
}

// CreateNote writes a new note and indexes it.
func (s *Service) CreateNote(_ context.Context, path string, content []byte) (*NoteDetail, error) {
	if _, err := s.store.Read(path); err == nil {
		return nil, fmt.Errorf("note %s: %w", path, apperr.ErrAlreadyExists)
	} else if errors.Is(err, storage.ErrNotNote) {
		return nil, mapStorageErr(path, err)
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, mapStorageErr(path, err)
	}
	if err := s.IndexFile(path, content); err != nil {
		return nil, err
	}
	return buildNoteDetail(path, content)
}

// UpdateNote replaces a note's content with optimistic concurrency on the
// vault checksum. ifMatch is an If-Match value or a bare checksum; empty
// skips the check. An open session is reloaded with the new content.
func (s *Service) UpdateNote(ctx context.Context, path string, content []byte, ifMatch string) (*NoteDetail, error) {
	if sess, ok := s.open(path); ok {
		sess.Flush()
	}
	existing, err := s.read(path)
	if err != nil {
		return nil, err
	}
	if !checksum.Matches(ifMatch, checksum.Sum(existing)) {
		return nil, fmt.Errorf("note %s: %w", path, apperr.ErrConflict)
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, mapStorageErr(path, err)
	}
	if err := s.IndexFile(path, content); err != nil {
		return nil, err
	}
	if sess, ok := s.open(path); ok {
		if _, err := sess.Reload(string(content)); err != nil && !errors.Is(err, session.ErrClosed) {
			return nil, err
		}
	}
	return s.GetNote(ctx, path)
}

// DeleteNote closes any session on the note, then removes it from the vault
// and the index.
func (s *Service) DeleteNote(_ context.Context, path string) error {
	if sess, ok := s.open(path); ok {
		_ = s.sessions.Close(sess.ID())
	}
	if err := s.store.Delete(path); err != nil {
		return mapStorageErr(path, err)
	}
	return s.db.DeleteNote(path)
}

// MoveNote renames a note. An open session follows the note.
func (s *Service) MoveNote(ctx context.Context, oldPath, newPath string) (*NoteDetail, error) {
	if sess, ok := s.open(oldPath); ok {
		sess.Flush()
	}
	if err := s.store.Move(oldPath, newPath); err != nil {
		return nil, mapStorageErr(newPath, err)
	}
	if s.sessions != nil {
		s.sessions.Rename(oldPath, newPath)
	}
	if err := s.db.DeleteNote(oldPath); err != nil {
		return nil, err
	}
	data, err := s.read(newPath)
	if err != nil {
		return nil, err
	}
	if err := s.IndexFile(newPath, data); err != nil {
		return nil, err
	}
	return s.GetNote(ctx, newPath)
}

// ListNotes returns a page of catalogued notes.
func (s *Service) ListNotes(_ context.Context, limit, offset int, openTasksOnly bool) ([]NoteListItem, int, error) {
	rows, total, err := s.db.ListNotes(limit, offset, openTasksOnly)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			Path:      r.Path,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Summary:   models.TaskSummary{Total: r.TasksTotal, Completed: r.TasksDone},
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Tasks lists the tasks of a note.
func (s *Service) Tasks(ctx context.Context, path string) ([]models.Task, error) {
	d, err := s.GetNote(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.Tasks, nil
}

// ToggleTask flips the checkbox on a 1-based line and reports the new state.
func (s *Service) ToggleTask(_ context.Context, path string, line int) (bool, error) {
	if sess, ok := s.open(path); ok {
		return sess.ToggleTask(line)
	}
	data, err := s.read(path)
	if err != nil {
		return false, err
	}
	out, checked, err := toggleLine(string(data), line)
	if err != nil {
		return false, err
	}
	if err := s.writeIndexed(path, []byte(out)); err != nil {
		return false, err
	}
	return checked, nil
}

// AddTask appends an unchecked task and returns its 1-based line.
func (s *Service) AddTask(_ context.Context, path, text string) (int, error) {
	if strings.ContainsAny(text, "\r\n") {
		return 0, fmt.Errorf("task text must be a single line: %w", apperr.ErrInvalidInput)
	}
	if sess, ok := s.open(path); ok {
		return sess.AppendTask(text)
	}
	data, err := s.read(path)
	if err != nil {
		return 0, err
	}
	out, line := appendTask(string(data), text)
	if err := s.writeIndexed(path, []byte(out)); err != nil {
		return 0, err
	}
	return line, nil
}

// CreateSnapshot stores a manual snapshot of the note's live content.
func (s *Service) CreateSnapshot(_ context.Context, path, title, description string) (models.Snapshot, error) {
	if s.snaps == nil {
		return models.Snapshot{}, errors.New("noteservice: snapshots disabled")
	}
	text, _, err := s.content(path)
	if err != nil {
		return models.Snapshot{}, err
	}
	if title == "" {
		title = parser.DeriveTitle(text, path)
	}
	return s.snaps.Save(models.Snapshot{
		NotePath:    path,
		Title:       title,
		Description: description,
		Content:     text,
	})
}

// RestoreSnapshot writes a snapshot's content back to its note.
func (s *Service) RestoreSnapshot(ctx context.Context, id string) (*NoteDetail, error) {
	if s.snaps == nil {
		return nil, errors.New("noteservice: snapshots disabled")
	}
	snap, err := s.snaps.Get(id)
	if err != nil {
		return nil, err
	}
	return s.UpdateNote(ctx, snap.NotePath, []byte(snap.Content), "")
}

// IndexFile parses data and upserts it into the index.
func (s *Service) IndexFile(path string, data []byte) error {
	return index.IndexFile(s.db, path, data, time.Now())
}

func (s *Service) writeIndexed(path string, data []byte) error {
	if err := s.store.Write(path, data); err != nil {
		return mapStorageErr(path, err)
	}
	return s.IndexFile(path, data)
}

func buildNoteDetail(path string, data []byte) (*NoteDetail, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{
		Path:        path,
		Title:       res.Title,
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Frontmatter: res.Frontmatter,
		Tasks:       nonNilSlice(res.Tasks),
		Summary:     models.Summarize(res.Tasks),
		UpdatedAt:   time.Now(),
	}, nil
}

// toggleLine flips the task on a 1-based line of text.
func toggleLine(text string, line int) (string, bool, error) {
	lines := strings.Split(text, "\n")
	if line < 1 || line > len(lines) {
		return "", false, session.ErrLineOutOfRange
	}
	toggled, ok := tasklist.ToggleCheckbox(lines[line-1])
	if !ok {
		return "", false, session.ErrNotTask
	}
	lines[line-1] = toggled
	return strings.Join(lines, "\n"), tasklist.IsCheckedTask(toggled), nil
}

// appendTask adds "- [ ] text" on a new last line, reusing an empty last
// line.
func appendTask(text, task string) (string, int) {
	eol := "\n"
	if strings.Contains(text, "\r\n") {
		eol = "\r\n"
	}
	lines := strings.Split(text, "\n")
	item := "- [ ] " + task
	if lines[len(lines)-1] == "" {
		return text + item, len(lines)
	}
	return text + eol + item, len(lines) + 1
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
