package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mwhitfield/rulewatch/internal/model"
	_ "modernc.org/sqlite"
)

// RetentionDays is how long untouched documents (and their votes and
// comments, via cascade) are kept before being purged on open.
const RetentionDays = 45

// SQLiteStore persists votes and comments in a local SQLite database.
type SQLiteStore struct {
	conn *sql.DB
	now  func() time.Time
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Enable WAL mode for better concurrency.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	s := &SQLiteStore{conn: conn, now: time.Now}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := s.purgeStale(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("purge stale: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// BackendType returns "SQLite".
func (s *SQLiteStore) BackendType() string { return "SQLite" }

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		doc_id TEXT PRIMARY KEY,
		up_votes INTEGER NOT NULL DEFAULT 0,
		down_votes INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME
	);
	CREATE TABLE IF NOT EXISTS votes (
		doc_id TEXT NOT NULL REFERENCES documents(doc_id) ON DELETE CASCADE,
		voter_key TEXT NOT NULL,
		direction TEXT NOT NULL CHECK(direction IN ('up', 'down')),
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (doc_id, voter_key)
	);
	CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		doc_id TEXT NOT NULL REFERENCES documents(doc_id) ON DELETE CASCADE,
		author TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// purgeStale deletes documents untouched for RetentionDays.
func (s *SQLiteStore) purgeStale() error {
	cutoff := s.now().AddDate(0, 0, -RetentionDays)
	_, err := s.conn.Exec("DELETE FROM documents WHERE updated_at IS NULL OR updated_at < ?", cutoff)
	return err
}

// touchDocument ensures a document row exists.
func touchDocument(tx *sql.Tx, docID string, now time.Time) error {
	_, err := tx.Exec(`
		INSERT INTO documents (doc_id, up_votes, down_votes, updated_at)
		VALUES (?, 0, 0, ?)
		ON CONFLICT(doc_id) DO NOTHING`, docID, now)
	return err
}

// ApplyVote implements Store.
func (s *SQLiteStore) ApplyVote(docID, voterKey string, direction model.Direction) (model.VoteTally, error) {
	if err := checkVote(docID, direction); err != nil {
		return model.VoteTally{}, err
	}

	now := s.now()
	tx, err := s.conn.Begin()
	if err != nil {
		return model.VoteTally{}, err
	}
	defer tx.Rollback()

	if err := touchDocument(tx, docID, now); err != nil {
		return model.VoteTally{}, err
	}

	var up, down int
	if err := tx.QueryRow("SELECT up_votes, down_votes FROM documents WHERE doc_id = ?", docID).Scan(&up, &down); err != nil {
		return model.VoteTally{}, err
	}

	var previous model.Direction
	var prev string
	err = tx.QueryRow("SELECT direction FROM votes WHERE doc_id = ? AND voter_key = ?", docID, voterKey).Scan(&prev)
	switch {
	case err == sql.ErrNoRows:
		previous = ""
	case err != nil:
		return model.VoteTally{}, err
	default:
		previous = model.Direction(prev)
	}

	if previous != direction {
		up, down = move(up, down, previous, direction)
		if _, err := tx.Exec(`
			INSERT INTO votes (doc_id, voter_key, direction, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(doc_id, voter_key) DO UPDATE SET direction = excluded.direction, updated_at = excluded.updated_at`,
			docID, voterKey, string(direction), now); err != nil {
			return model.VoteTally{}, err
		}
		if _, err := tx.Exec("UPDATE documents SET up_votes = ?, down_votes = ?, updated_at = ? WHERE doc_id = ?",
			up, down, now, docID); err != nil {
			return model.VoteTally{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return model.VoteTally{}, err
	}
	return model.VoteTally{Up: up, Down: down, Score: up - down, Direction: direction}, nil
}

// Tally implements Store.
func (s *SQLiteStore) Tally(docID, voterKey string) (model.VoteTally, error) {
	var t model.VoteTally
	err := s.conn.QueryRow("SELECT up_votes, down_votes FROM documents WHERE doc_id = ?", docID).Scan(&t.Up, &t.Down)
	if err != nil && err != sql.ErrNoRows {
		return model.VoteTally{}, err
	}
	t.Score = t.Up - t.Down

	var dir string
	err = s.conn.QueryRow("SELECT direction FROM votes WHERE doc_id = ? AND voter_key = ?", docID, voterKey).Scan(&dir)
	if err != nil && err != sql.ErrNoRows {
		return model.VoteTally{}, err
	}
	t.Direction = model.Direction(dir)
	return t, nil
}

// AddComment implements Store.
func (s *SQLiteStore) AddComment(docID, author, text string) (int, error) {
	author, err := checkComment(docID, author, text)
	if err != nil {
		return 0, err
	}

	now := s.now()
	tx, err := s.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err := touchDocument(tx, docID, now); err != nil {
		return 0, err
	}
	if _, err := tx.Exec("INSERT INTO comments (doc_id, author, text, created_at) VALUES (?, ?, ?, ?)",
		docID, author, text, now); err != nil {
		return 0, err
	}
	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM comments WHERE doc_id = ?", docID).Scan(&count); err != nil {
		return 0, err
	}
	if _, err := tx.Exec("UPDATE documents SET updated_at = ? WHERE doc_id = ?", now, docID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// Comments implements Store.
func (s *SQLiteStore) Comments(docID string) ([]model.Comment, error) {
	rows, err := s.conn.Query("SELECT doc_id, author, text, created_at FROM comments WHERE doc_id = ? ORDER BY id", docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComments(rows)
}

// CommentCount implements Store.
func (s *SQLiteStore) CommentCount(docID string) (int, error) {
	var count int
	err := s.conn.QueryRow("SELECT COUNT(*) FROM comments WHERE doc_id = ?", docID).Scan(&count)
	return count, err
}

func scanComments(rows *sql.Rows) ([]model.Comment, error) {
	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.DocumentID, &c.Author, &c.Text, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
