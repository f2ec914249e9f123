package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Storage wraps the sqlite handle. One instance is shared by all handlers;
// connections for different users are independent at the row level.
type Storage struct {
	db *sql.DB
}

// Open connects to the sqlite file at path and creates the schema
// idempotently. There is no migration system.
func Open(path string) (*Storage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection avoids SQLITE_BUSY with concurrent writers
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			"id" INTEGER PRIMARY KEY AUTOINCREMENT,
			"username" TEXT NOT NULL UNIQUE,
			"password_hash" TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chat_history (
			"id" INTEGER PRIMARY KEY AUTOINCREMENT,
			"user_id" INTEGER NOT NULL,
			"role" TEXT NOT NULL,
			"content" TEXT NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS user_health_data (
			"user_id" INTEGER PRIMARY KEY,
			"profile_json" TEXT NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id)
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}
