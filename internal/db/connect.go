// Package db opens the sqlite database that backs the sqlite record store.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const defaultPath = "feedsync.db"

var ErrPathRequired = errors.New("database path is required")

// Connect opens the database and makes sure the schema exists.
func Connect(options ...Option) (*sql.DB, error) {
	opts := &dbOptions{path: defaultPath}
	for _, o := range options {
		o(opts)
	}

	dsn, err := buildDSN(opts)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Each connection to :memory: is its own database.
	if opts.GetInMemory() {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach sqlite database: %w", err)
	}

	if !opts.GetIsReadOnly() {
		if err := initDB(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialize database schema: %w", err)
		}
	}

	log.Debug().
		Str("path", opts.GetPath()).
		Bool("in_memory", opts.GetInMemory()).
		Bool("read_only", opts.GetIsReadOnly()).
		Msg("SQLite database connected")

	return db, nil
}

func buildDSN(opts *dbOptions) (string, error) {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")

	if opts.GetInMemory() {
		return ":memory:?" + q.Encode(), nil
	}

	if opts.GetPath() == "" {
		return "", ErrPathRequired
	}

	if dir := filepath.Dir(opts.GetPath()); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	q.Add("_pragma", "journal_mode(WAL)")
	if opts.GetIsReadOnly() {
		q.Add("mode", "ro")
	}

	return "file:" + opts.GetPath() + "?" + q.Encode(), nil
}

// initDB creates the records table if it does not exist.
func initDB(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			name TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create records table: %w", err)
	}
	return nil
}
