// Package sqlite persists conversation state in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/stores"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const memoryPath = ":memory:"

type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies pending
// migrations. Pass ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serialises
	// writers.
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, sessionID string) (conversations.State, error) {
	var encoded string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM sessions WHERE session_id = ?`, sessionID).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return conversations.State{}, stores.ErrNotFound
	}
	if err != nil {
		return conversations.State{}, fmt.Errorf("failed to load session %q: %w", sessionID, err)
	}

	var state conversations.State
	if err := json.Unmarshal([]byte(encoded), &state); err != nil {
		return conversations.State{}, fmt.Errorf("failed to decode session %q: %w", sessionID, err)
	}
	return state, nil
}

func (s *Store) Save(ctx context.Context, sessionID string, state conversations.State) error {
	encoded, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session %q: %w", sessionID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		sessionID, string(encoded), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save session %q: %w", sessionID, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session %q: %w", sessionID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return stores.ErrNotFound
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
