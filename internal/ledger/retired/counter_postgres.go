package retired

import (
	"context"
	"database/sql"
	"fmt"

	"carbonledger/pkg/domain"
	txcontext "carbonledger/pkg/platform/tx"
)

// PostgresCounter keeps the retirement total in a single-row table so a
// restart reconstructs the exact value.
type PostgresCounter struct {
	db *sql.DB
}

func NewPostgresCounter(db *sql.DB) *PostgresCounter {
	return &PostgresCounter{db: db}
}

func (c *PostgresCounter) execer(ctx context.Context) interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
} {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return c.db
}

func (c *PostgresCounter) Add(ctx context.Context, amount domain.Amount) (domain.Amount, error) {
	var current int64
	err := c.execer(ctx).QueryRowContext(ctx,
		`SELECT total FROM retired_counter FOR UPDATE`).Scan(&current)
	if err != nil {
		return 0, fmt.Errorf("lock retired counter: %w", err)
	}
	total, err := domain.Amount(current).Add(amount)
	if err != nil {
		return 0, err
	}
	var updated int64
	err = c.execer(ctx).QueryRowContext(ctx,
		`UPDATE retired_counter SET total = $1 RETURNING total`, total.Int64()).Scan(&updated)
	if err != nil {
		return 0, fmt.Errorf("update retired counter: %w", err)
	}
	return domain.Amount(updated), nil
}

func (c *PostgresCounter) Total(ctx context.Context) (domain.Amount, error) {
	var total int64
	err := c.execer(ctx).QueryRowContext(ctx,
		`SELECT total FROM retired_counter`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("read retired counter: %w", err)
	}
	return domain.Amount(total), nil
}
