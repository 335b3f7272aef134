// Package store provides the relational note store backed by database/sql.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Config describes how to reach the backing database.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB is the process-wide connection pool. It is created once at startup and
// passed to whoever needs to open sessions.
type DB struct {
	conn    *sql.DB
	dialect dialect
}

// Open opens the pool, verifies connectivity and creates the notes table if absent.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	conn, err := sql.Open(d.driver, d.dsn(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.ExecContext(ctx, d.schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn, dialect: d}, nil
}

// Close closes the pool. Open sessions must be closed first.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Stats reports pool statistics.
func (db *DB) Stats() sql.DBStats {
	return db.conn.Stats()
}

// Session pins a single connection from the pool. The caller must Close it
// when done, on every path.
func (db *DB) Session(ctx context.Context) (*Session, error) {
	c, err := db.conn.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: acquire connection: %w", err)
	}
	return &Session{conn: c, dialect: db.dialect}, nil
}
