package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jhoicas/pilo-web/internal/domain/repository"
)

//go:embed schema.sql
var schemaSQL string

var _ repository.ClientStateRepository = (*SQLiteStore)(nil)

// SQLiteStore ClientState persistido en un archivo SQLite (driver puro Go).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore abre (o crea) la base y aplica el esquema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: abrir %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: WAL: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: esquema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, namespace, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM client_state WHERE namespace = ? AND key = ?`, namespace, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrStateNotFound
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: get: %w", err)
	}
	return v, nil
}

func (s *SQLiteStore) Set(ctx context.Context, namespace, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_state (namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		namespace, key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: set: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, namespace string, keys ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM client_state WHERE namespace = ? AND key = ?`, namespace, k,
		); err != nil {
			return fmt.Errorf("sqlite: delete: %w", err)
		}
	}
	return tx.Commit()
}

// Close cierra la base.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
