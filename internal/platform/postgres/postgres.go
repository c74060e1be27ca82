// Package postgres opens the ledger database and applies its schema.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects via the pgx stdlib driver and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

// schema is idempotent so Migrate can run on every start.
//
// Lot ids live in NUMERIC(39,0): the id space is a 128-bit counter and must
// survive restarts without reuse. Amounts are BIGINT with a non-negativity
// check; overflow checks happen in Go before writes.
const schema = `
CREATE TABLE IF NOT EXISTS projects (
    id                   BIGINT PRIMARY KEY,
    name                 TEXT NOT NULL,
    location             TEXT NOT NULL,
    project_type         TEXT NOT NULL,
    description          TEXT NOT NULL,
    issuer               TEXT NOT NULL,
    created_at           TIMESTAMPTZ NOT NULL,
    total_credits_issued BIGINT NOT NULL DEFAULT 0 CHECK (total_credits_issued >= 0)
);

CREATE SEQUENCE IF NOT EXISTS project_ids START WITH 1;

CREATE TABLE IF NOT EXISTS lots (
    id            NUMERIC(39,0) PRIMARY KEY,
    project_id    BIGINT NOT NULL REFERENCES projects (id),
    amount        BIGINT NOT NULL CHECK (amount >= 0),
    owner_address TEXT NOT NULL,
    issued_at     TIMESTAMPTZ NOT NULL,
    vintage       INT NOT NULL,
    retired       BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS lots_owner_idx ON lots (owner_address, id);

CREATE TABLE IF NOT EXISTS lot_counter (
    singleton BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
    last_id   NUMERIC(39,0) NOT NULL DEFAULT 0
);

INSERT INTO lot_counter (singleton) VALUES (TRUE) ON CONFLICT DO NOTHING;

CREATE TABLE IF NOT EXISTS retired_counter (
    singleton BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
    total     BIGINT NOT NULL DEFAULT 0 CHECK (total >= 0)
);

INSERT INTO retired_counter (singleton) VALUES (TRUE) ON CONFLICT DO NOTHING;

CREATE TABLE IF NOT EXISTS ledger_meta (
    singleton   BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
    initialized BOOLEAN NOT NULL DEFAULT FALSE
);
`

// Migrate applies the ledger schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
