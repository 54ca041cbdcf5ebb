// Package workspace tracks recently opened and saved documents in a small
// SQLite database. It implements the session observer interface; events are
// recorded best-effort and never fail the operation that produced them.
package workspace

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Tracker records document open/save events.
type Tracker struct {
	conn *sql.DB
}

// Open opens or creates the tracker database at dbPath.
func Open(dbPath string) (*Tracker, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("workspace: mkdir: %w", err)
	}
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("workspace: open sqlite: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("workspace: apply schema: %w", err)
	}
	return &Tracker{conn: conn}, nil
}

// Close closes the database connection.
func (t *Tracker) Close() error {
	return t.conn.Close()
}

// DocumentOpened records that a document at path was opened.
func (t *Tracker) DocumentOpened(path string) {
	t.conn.Exec(`
		INSERT INTO recent_documents (path, opened_at) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET opened_at = excluded.opened_at`,
		path, time.Now().Unix())
}

// DocumentSaved records that a document at path was saved.
func (t *Tracker) DocumentSaved(path string) {
	t.conn.Exec(`
		INSERT INTO recent_documents (path, saved_at) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET saved_at = excluded.saved_at`,
		path, time.Now().Unix())
}

// Entry is one recent-document row. A zero time means the event never
// happened for this path.
type Entry struct {
	Path     string
	OpenedAt time.Time
	SavedAt  time.Time
}

// Recent returns the most recently touched documents, newest first.
func (t *Tracker) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := t.conn.Query(`
		SELECT path, opened_at, saved_at FROM recent_documents
		ORDER BY MAX(opened_at, saved_at) DESC, path
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("workspace: query recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var path string
		var opened, saved int64
		if err := rows.Scan(&path, &opened, &saved); err != nil {
			return nil, fmt.Errorf("workspace: scan recent: %w", err)
		}
		e := Entry{Path: path}
		if opened > 0 {
			e.OpenedAt = time.Unix(opened, 0)
		}
		if saved > 0 {
			e.SavedAt = time.Unix(saved, 0)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("workspace: recent: %w", err)
	}
	return out, nil
}
