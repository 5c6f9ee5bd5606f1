//go:build sqlite_fts5

package snapshot

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS snapshots_fts USING fts5(
			id UNINDEXED,
			title,
			description,
			content,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsInsert(tx *sql.Tx, id, title, description, content string) error {
	_, err := tx.Exec(`INSERT INTO snapshots_fts (id, title, description, content) VALUES (?, ?, ?, ?)`,
		id, title, description, content)
	if err != nil {
		return fmt.Errorf("snapshot: insert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, id string) {
	_, _ = tx.Exec(`DELETE FROM snapshots_fts WHERE id = ?`, id)
}

// Search runs an FTS5 query over snapshot titles, descriptions and content.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT s.id, s.note_path, s.title,
		       snippet(snapshots_fts, 3, '<b>', '</b>', '...', 64)
		FROM snapshots_fts
		JOIN snapshots s ON s.id = snapshots_fts.id
		WHERE snapshots_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("snapshot: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.NotePath, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
