package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresBackend stores values in the kv_entries table
type PostgresBackend struct {
	db *sql.DB
}

// NewPostgresBackend creates a backend over an open database handle.
// The kv_entries table is created by the goose migrations.
func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

func (p *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT value
		FROM kv_entries
		WHERE key = $1
	`

	var value []byte
	err := p.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get kv entry: %w", err)
	}

	return value, nil
}

func (p *PostgresBackend) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	if _, err := p.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set kv entry: %w", err)
	}

	return nil
}

func (p *PostgresBackend) Delete(ctx context.Context, key string) error {
	query := `
		DELETE FROM kv_entries
		WHERE key = $1
	`

	if _, err := p.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete kv entry: %w", err)
	}

	return nil
}

func (p *PostgresBackend) Close() error {
	return p.db.Close()
}

// Update runs fn inside a transaction holding an advisory lock on key, so
// writers on other instances wait instead of overwriting. The lock also covers
// keys that have no row yet.
func (p *PostgresBackend) Update(ctx context.Context, key string, fn func(raw []byte, found bool) ([]byte, error)) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin kv update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("failed to lock kv entry: %w", err)
	}

	var raw []byte
	found := true
	err = tx.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = $1 FOR UPDATE`, key).Scan(&raw)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to get kv entry: %w", err)
		}
		found = false
	}

	next, err := fn(raw, found)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	if _, err := tx.ExecContext(ctx, query, key, next); err != nil {
		return fmt.Errorf("failed to set kv entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit kv update: %w", err)
	}
	return nil
}
