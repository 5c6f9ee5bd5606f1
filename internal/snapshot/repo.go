package snapshot

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/models"
)

// DefaultAutoLimit is how many automatic snapshots a note keeps.
const DefaultAutoLimit = 10

// SearchResult is one search hit.
type SearchResult struct {
	ID       string `json:"id"`
	NotePath string `json:"note_path"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
}

// Store is the snapshot persistence surface.
type Store interface {
	Save(s models.Snapshot) (models.Snapshot, error)
	CreateAuto(s models.Snapshot, limit int) (models.Snapshot, error)
	List(notePath string) ([]models.Snapshot, error)
	Get(id string) (*models.Snapshot, error)
	Delete(id string) error
	Compare(id1, id2 string) (*models.SnapshotDiff, error)
	Search(query string, limit int) ([]SearchResult, error)
}

var _ Store = (*DB)(nil)

func prepare(s models.Snapshot) models.Snapshot {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.CharCount = utf8.RuneCountInString(s.Content)
	return s
}

// Save stores a manual snapshot. Missing ids and timestamps are filled in.
func (db *DB) Save(s models.Snapshot) (models.Snapshot, error) {
	s = prepare(s)
	tx, err := db.conn.Begin()
	if err != nil {
		return s, fmt.Errorf("snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := insert(tx, s); err != nil {
		return s, err
	}
	return s, tx.Commit()
}

// CreateAuto stores an automatic snapshot and prunes the note's oldest
// automatic snapshots so that at most limit remain. Manual snapshots are
// never pruned.
func (db *DB) CreateAuto(s models.Snapshot, limit int) (models.Snapshot, error) {
	if limit <= 0 {
		limit = DefaultAutoLimit
	}
	s.Auto = true
	s = prepare(s)

	tx, err := db.conn.Begin()
	if err != nil {
		return s, fmt.Errorf("snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rows, err := tx.Query(`
		SELECT id FROM snapshots
		WHERE note_path = ? AND auto = 1
		ORDER BY created_at DESC, rowid DESC
		LIMIT -1 OFFSET ?
	`, s.NotePath, limit-1)
	if err != nil {
		return s, fmt.Errorf("snapshot: select stale: %w", err)
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return s, err
		}
		stale = append(stale, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return s, err
	}

	for _, id := range stale {
		ftsDelete(tx, id)
		if _, err := tx.Exec(`DELETE FROM snapshots WHERE id = ?`, id); err != nil {
			return s, fmt.Errorf("snapshot: prune %s: %w", id, err)
		}
	}
	if err := insert(tx, s); err != nil {
		return s, err
	}
	return s, tx.Commit()
}

func insert(tx *sql.Tx, s models.Snapshot) error {
	_, err := tx.Exec(`
		INSERT INTO snapshots (id, note_path, title, description, content, char_count, auto, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.NotePath, s.Title, s.Description, s.Content, s.CharCount, s.Auto, s.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("snapshot: insert %s: %w", s.ID, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("snapshot: insert: %w", err)
	}
	return ftsInsert(tx, s.ID, s.Title, s.Description, s.Content)
}

// List returns snapshots newest first, without content. An empty notePath
// lists every note's snapshots.
func (db *DB) List(notePath string) ([]models.Snapshot, error) {
	q := `SELECT id, note_path, title, description, char_count, auto, created_at FROM snapshots`
	var args []any
	if notePath != "" {
		q += ` WHERE note_path = ?`
		args = append(args, notePath)
	}
	q += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("snapshot: list: %w", err)
	}
	defer rows.Close()

	out := []models.Snapshot{}
	for rows.Next() {
		var s models.Snapshot
		if err := rows.Scan(&s.ID, &s.NotePath, &s.Title, &s.Description, &s.CharCount, &s.Auto, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Get returns one snapshot with its content.
func (db *DB) Get(id string) (*models.Snapshot, error) {
	var s models.Snapshot
	err := db.conn.QueryRow(`
		SELECT id, note_path, title, description, content, char_count, auto, created_at
		FROM snapshots WHERE id = ?
	`, id).Scan(&s.ID, &s.NotePath, &s.Title, &s.Description, &s.Content, &s.CharCount, &s.Auto, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: get: %w", err)
	}
	return &s, nil
}

// Delete removes a snapshot.
func (db *DB) Delete(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, id)
	res, err := tx.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("snapshot: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("snapshot %s: %w", id, apperr.ErrNotFound)
	}
	return tx.Commit()
}

// Compare loads two snapshots and diffs their content line by line.
func (db *DB) Compare(id1, id2 string) (*models.SnapshotDiff, error) {
	a, err := db.Get(id1)
	if err != nil {
		return nil, err
	}
	b, err := db.Get(id2)
	if err != nil {
		return nil, err
	}
	d := Diff(a.Content, b.Content)
	return &d, nil
}

// Diff reports lines of newer absent from older (additions) and lines of
// older absent from newer (deletions). It is a set difference: order and
// repetition are not aligned, and duplicated lines are reported once per
// occurrence.
func Diff(older, newer string) models.SnapshotDiff {
	oldLines := strings.Split(older, "\n")
	newLines := strings.Split(newer, "\n")
	inOld := make(map[string]struct{}, len(oldLines))
	for _, l := range oldLines {
		inOld[l] = struct{}{}
	}
	inNew := make(map[string]struct{}, len(newLines))
	for _, l := range newLines {
		inNew[l] = struct{}{}
	}

	d := models.SnapshotDiff{Additions: []string{}, Deletions: []string{}}
	for _, l := range newLines {
		if _, ok := inOld[l]; !ok {
			d.Additions = append(d.Additions, l)
		}
	}
	for _, l := range oldLines {
		if _, ok := inNew[l]; !ok {
			d.Deletions = append(d.Deletions, l)
		}
	}
	return d
}
