package store

import (
	"context"

	"github.com/starford/notekeeper/internal/models"
)

// Notes defines the note operations available on a scoped connection.
// Consumers should depend on this interface rather than *Session so that
// tests can substitute fakes.
type Notes interface {
	GetByID(ctx context.Context, id int64) (*models.Note, error)
	List(ctx context.Context, skip, limit int) ([]models.Note, error)
	Create(ctx context.Context, title, content string) (*models.Note, error)
	DeleteByID(ctx context.Context, id int64) (bool, error)
	Search(ctx context.Context, keyword string) ([]models.Note, error)
}

// Scoped is a Notes bound to one connection that must be closed after use.
type Scoped interface {
	Notes
	Close() error
}

// Opener acquires a scoped connection.
type Opener func(ctx context.Context) (Scoped, error)

// Opener returns an Opener drawing sessions from db.
func (db *DB) Opener() Opener {
	return func(ctx context.Context) (Scoped, error) {
		s, err := db.Session(ctx)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Verify *Session satisfies Scoped at compile time.
var _ Scoped = (*Session)(nil)
