// Package journal keeps a SQLite record of every changeset an export
// replayed, so a run can be inspected after the fact.
package journal

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is the outcome of one changeset.
type Entry struct {
	Sequence  int
	User      string
	Timestamp time.Time
	Comment   string
	Revisions int
	Committed bool
	Tags      []string
	Error     string
}

// Journal manages the export journal database.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal at dbPath.
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	j := &Journal{db: db}
	if err := j.init(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize journal %s: %w", dbPath, err)
	}
	return j, nil
}

func (j *Journal) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS changesets (
		seq INTEGER PRIMARY KEY,
		user TEXT,
		timestamp TIMESTAMP,
		comment TEXT,
		revisions INTEGER,
		committed BOOLEAN,
		tags TEXT,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_changesets_user ON changesets(user);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Reset clears every entry, for a fresh export run.
func (j *Journal) Reset() error {
	_, err := j.db.Exec("DELETE FROM changesets")
	return err
}

// Record stores entry, replacing any earlier entry with the same sequence.
func (j *Journal) Record(entry Entry) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.Exec("DELETE FROM changesets WHERE seq = ?", entry.Sequence)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO changesets (seq, user, timestamp, comment, revisions, committed, tags, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.Sequence, entry.User, entry.Timestamp.UTC(), entry.Comment, entry.Revisions,
		entry.Committed, strings.Join(entry.Tags, "\n"), entry.Error)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// List returns entries in sequence order. A positive limit keeps only the
// last limit entries.
func (j *Journal) List(limit int) ([]Entry, error) {
	query := `SELECT seq, user, timestamp, comment, revisions, committed, tags, error
		FROM changesets`
	var args []any
	if limit > 0 {
		query += " WHERE seq IN (SELECT seq FROM changesets ORDER BY seq DESC LIMIT ?)"
		args = append(args, limit)
	}
	query += " ORDER BY seq"

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var tags string
		if err := rows.Scan(&e.Sequence, &e.User, &e.Timestamp, &e.Comment,
			&e.Revisions, &e.Committed, &tags, &e.Error); err != nil {
			return nil, err
		}
		if tags != "" {
			e.Tags = strings.Split(tags, "\n")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (j *Journal) Close() error {
	return j.db.Close()
}
