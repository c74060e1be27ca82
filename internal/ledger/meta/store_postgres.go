package meta

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"carbonledger/pkg/platform/sentinel"
	txcontext "carbonledger/pkg/platform/tx"
)

// PostgresStore persists the initialization marker.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) execer(ctx context.Context) interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
} {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Initialize(ctx context.Context) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO ledger_meta (singleton, initialized) VALUES (TRUE, TRUE)
		ON CONFLICT (singleton) DO UPDATE SET initialized = TRUE
		WHERE ledger_meta.initialized = FALSE`)
	if err != nil {
		return fmt.Errorf("initialize ledger: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("initialize ledger: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) Initialized(ctx context.Context) (bool, error) {
	var initialized bool
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT initialized FROM ledger_meta`).Scan(&initialized)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read ledger meta: %w", err)
	}
	return initialized, nil
}
