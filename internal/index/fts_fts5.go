//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

// The FTS table mirrors notes through triggers, so repo code only writes
// the notes table.
var ftsSchema = []string{
	`CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
		title,
		body,
		content = 'notes',
		content_rowid = 'rowid',
		tokenize = 'unicode61 remove_diacritics 2'
	)`,
	`CREATE TRIGGER IF NOT EXISTS notes_fts_ai AFTER INSERT ON notes BEGIN
		INSERT INTO notes_fts (rowid, title, body) VALUES (new.rowid, new.title, new.body);
	END`,
	`CREATE TRIGGER IF NOT EXISTS notes_fts_ad AFTER DELETE ON notes BEGIN
		INSERT INTO notes_fts (notes_fts, rowid, title, body) VALUES ('delete', old.rowid, old.title, old.body);
	END`,
	`CREATE TRIGGER IF NOT EXISTS notes_fts_au AFTER UPDATE ON notes BEGIN
		INSERT INTO notes_fts (notes_fts, rowid, title, body) VALUES ('delete', old.rowid, old.title, old.body);
		INSERT INTO notes_fts (rowid, title, body) VALUES (new.rowid, new.title, new.body);
	END`,
}

func initFTS(conn *sql.DB) error {
	var existing int
	if err := conn.QueryRow(`SELECT count(*) FROM sqlite_master WHERE name = 'notes_fts'`).Scan(&existing); err != nil {
		return err
	}
	for _, stmt := range ftsSchema {
		if _, err := conn.Exec(stmt); err != nil {
			return err
		}
	}
	if existing == 0 {
		// Rows indexed by a build without FTS need to be picked up.
		if _, err := conn.Exec(`INSERT INTO notes_fts (notes_fts) VALUES ('rebuild')`); err != nil {
			return fmt.Errorf("rebuild fts: %w", err)
		}
	}
	return nil
}

// matchQuery turns free text into an FTS5 query: each word is quoted so
// punctuation is literal, and the last word matches as a prefix.
func matchQuery(query string) string {
	words := strings.Fields(query)
	if len(words) == 0 {
		return ""
	}
	for i, w := range words {
		words[i] = `"` + strings.ReplaceAll(w, `"`, `""`) + `"`
	}
	words[len(words)-1] += "*"
	return strings.Join(words, " ")
}

// Search performs an FTS5 full-text search and returns matches with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	match := matchQuery(query)
	if match == "" {
		return []SearchResult{}, nil
	}
	rows, err := db.conn.Query(`
		SELECT n.path,
		       n.title,
		       snippet(notes_fts, 1, '<b>', '</b>', '...', 32)
		FROM notes_fts
		JOIN notes n ON n.rowid = notes_fts.rowid
		WHERE notes_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanResults(rows)
}
