// Copyright 2024-2026 Aiku AI

// Package database implements the bot's datastore on sqlite. Every
// operation is a single statement that checks one connection out of the
// database/sql pool for its duration; no transaction ever spans workers.
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	matrix_id  TEXT NOT NULL UNIQUE,
	user_role  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS webhooks (
	id            TEXT PRIMARY KEY,
	arr_type      TEXT NOT NULL,
	username      TEXT NOT NULL,
	password_hash BLOB NOT NULL,
	user_id       TEXT NOT NULL REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS matrix_rooms (
	id         TEXT PRIMARY KEY,
	room_id    TEXT NOT NULL,
	webhook_id TEXT NOT NULL REFERENCES webhooks(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_matrix_rooms_webhook_id ON matrix_rooms(webhook_id);
`

// Open opens (creating if necessary) the sqlite database at the given
// path, applies the schema, and configures the connection pool.
// maxOpenConns bounds how many statements can run concurrently; pass 0
// for the default of 10.
func Open(path string, maxOpenConns int) (*sql.DB, error) {
	if maxOpenConns <= 0 {
		maxOpenConns = 10
	}
	// Foreign keys are off by default in sqlite; the room binding cascade
	// depends on them.
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %q: %w", path, err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return db, nil
}
