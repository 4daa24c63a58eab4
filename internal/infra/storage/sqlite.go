package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// SQLite is a credential store backed by a single-table sqlite database.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and runs migrations.
func OpenSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &Error{Op: "open", Path: path, Err: err}
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, &Error{Op: "open", Path: path, Err: err}
	}

	db := &SQLite{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, &Error{Op: "migrate", Path: path, Err: err}
	}
	return db, nil
}

func (db *SQLite) migrate() error {
	_, err := db.conn.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

// Get retrieves a value. Returns false if the key is absent.
func (db *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := db.conn.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores a value, replacing any previous one.
func (db *SQLite) Set(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys in one transaction; missing keys are ignored.
func (db *SQLite) Delete(ctx context.Context, keys ...string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", k); err != nil {
			tx.Rollback()
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (db *SQLite) Close() error {
	return db.conn.Close()
}
