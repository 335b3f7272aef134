package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/notekeeper/internal/models"
)

// Session is a scoped connection exposing the note operations.
type Session struct {
	conn    *sql.Conn
	dialect dialect
	closed  bool
}

// Close returns the connection to the pool. Calling it twice is a no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}

// GetByID returns the note with the given id, or nil if there is none.
func (s *Session) GetByID(ctx context.Context, id int64) (*models.Note, error) {
	var n models.Note
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, title, content FROM notes WHERE id = ?`, id,
	).Scan(&n.ID, &n.Title, &n.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get note %d: %w", id, err)
	}
	return &n, nil
}

// List returns up to limit notes after skipping the first skip, ordered by id.
func (s *Session) List(ctx context.Context, skip, limit int) ([]models.Note, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, title, content FROM notes ORDER BY id LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("store: list notes: %w", err)
	}
	return scanNotes(rows)
}

// Create inserts a note and reads it back within one transaction.
func (s *Session) Create(ctx context.Context, title, content string) (*models.Note, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx,
		`INSERT INTO notes (title, content) VALUES (?, ?)`, title, content)
	if err != nil {
		return nil, fmt.Errorf("store: insert note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("store: last insert id: %w", err)
	}

	var n models.Note
	if err := tx.QueryRowContext(ctx,
		`SELECT id, title, content FROM notes WHERE id = ?`, id,
	).Scan(&n.ID, &n.Title, &n.Content); err != nil {
		return nil, fmt.Errorf("store: read back note %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return &n, nil
}

// DeleteByID removes the note and reports whether a row was actually deleted.
func (s *Session) DeleteByID(ctx context.Context, id int64) (bool, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("store: delete note %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("store: commit: %w", err)
	}
	return n > 0, nil
}

// Search returns every note whose title or content contains keyword.
// Matching is a case-sensitive substring test with no ranking and no limit.
func (s *Session) Search(ctx context.Context, keyword string) ([]models.Note, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, title, content FROM notes WHERE `+s.dialect.search+` ORDER BY id`,
		keyword, keyword)
	if err != nil {
		return nil, fmt.Errorf("store: search notes: %w", err)
	}
	return scanNotes(rows)
}

func scanNotes(rows *sql.Rows) ([]models.Note, error) {
	defer rows.Close()
	out := []models.Note{}
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Content); err != nil {
			return nil, fmt.Errorf("store: scan note: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate notes: %w", err)
	}
	return out, nil
}
