// Package testutil provides shared test helpers for setting up databases.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/starford/notekeeper/internal/store"
)

// TestDB creates a temporary SQLite-backed store that is automatically cleaned up.
func TestDB(t testing.TB) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "notekeeper-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() {
		os.Remove(dbFile.Name())
		os.Remove(dbFile.Name() + "-wal")
		os.Remove(dbFile.Name() + "-shm")
	})

	db, err := store.Open(context.Background(), store.Config{
		Driver: store.DriverSQLite,
		DSN:    dbFile.Name(),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
