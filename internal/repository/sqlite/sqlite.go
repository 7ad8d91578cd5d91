// Package sqlite implements the repository interfaces on an embedded SQLite
// database via the pure-Go modernc.org/sqlite driver (no CGo, so the binary
// cross-compiles cleanly).
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dodontommy/what-the-game/internal/apperror"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
// Use ":memory:" for an in-memory database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress; multiple
	// OAuth callbacks and API requests hit the DB at once.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Referential integrity between identities/library rows and their users.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this
// idempotent; for this schema size a migration framework would be overkill.
func (db *DB) migrate() error {
	// users.email uniqueness applies only to non-blank emails: providers may
	// withhold the address entirely, and two such users must both be allowed.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			email      TEXT NOT NULL DEFAULT '',
			username   TEXT NOT NULL,
			avatar_url TEXT NOT NULL DEFAULT '',
			provider   TEXT NOT NULL DEFAULT '',
			uid        TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email
			ON users(email) WHERE email <> '';
		CREATE INDEX IF NOT EXISTS idx_users_provider_uid ON users(provider, uid);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// identities.(provider, uid) is the serialization point for concurrent
	// logins: one of two racing creates wins, the other sees the UNIQUE
	// violation and surfaces a conflict.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS identities (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			provider      TEXT NOT NULL,
			uid           TEXT NOT NULL,
			access_token  TEXT NOT NULL DEFAULT '',
			refresh_token TEXT NOT NULL DEFAULT '',
			expires_at    DATETIME,
			extra_info    TEXT NOT NULL DEFAULT '{}',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(provider, uid)
		);
		CREATE INDEX IF NOT EXISTS idx_identities_user_id ON identities(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating identities table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS games (
			id           TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			platform     TEXT NOT NULL,
			genre        TEXT NOT NULL DEFAULT '',
			developer    TEXT NOT NULL DEFAULT '',
			publisher    TEXT NOT NULL DEFAULT '',
			description  TEXT NOT NULL DEFAULT '',
			external_id  TEXT NOT NULL DEFAULT '',
			release_date DATETIME,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating games table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS user_games (
			id                    TEXT PRIMARY KEY,
			user_id               TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			game_id               TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			status                TEXT NOT NULL,
			completion_percentage INTEGER,
			priority              INTEGER,
			hours_played          REAL NOT NULL DEFAULT 0,
			notes                 TEXT NOT NULL DEFAULT '',
			created_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_user_games_user_id ON user_games(user_id);
		CREATE INDEX IF NOT EXISTS idx_user_games_game_id ON user_games(game_id);
	`)
	if err != nil {
		return fmt.Errorf("creating user_games table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS game_services (
			id               TEXT PRIMARY KEY,
			user_id          TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			service_name     TEXT NOT NULL,
			access_token     TEXT NOT NULL DEFAULT '',
			refresh_token    TEXT NOT NULL DEFAULT '',
			token_expires_at DATETIME,
			created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, service_name)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating game_services table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS recommendations (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			game_id    TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			score      REAL NOT NULL,
			reason     TEXT NOT NULL,
			ai_model   TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_recommendations_user_id ON recommendations(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating recommendations table: %w", err)
	}

	return nil
}

// classifyConstraint translates SQLite UNIQUE-violation errors into the
// application's conflict class so callers can react without knowing the
// storage engine. Any other error passes through wrapped.
func classifyConstraint(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return apperror.Conflict(resource, key)
	}
	return err
}
