package lots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"carbonledger/internal/ledger"
	"carbonledger/pkg/domain"
	dErrors "carbonledger/pkg/domain-errors"
	"carbonledger/pkg/platform/sentinel"
	txcontext "carbonledger/pkg/platform/tx"
)

// PostgresStore persists lots in PostgreSQL. Mutating methods expect to run
// inside the ledger transaction carried in context; the row locks taken by
// Consume hold until that transaction commits.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbtx {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// nextID advances the persistent 128-bit lot counter and returns the new id.
func (s *PostgresStore) nextID(ctx context.Context) (domain.LotID, error) {
	var id domain.LotID
	err := s.execer(ctx).QueryRowContext(ctx,
		`UPDATE lot_counter SET last_id = last_id + 1 RETURNING last_id::TEXT`).Scan(&id)
	if err != nil {
		return domain.LotID{}, fmt.Errorf("next lot id: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) insertLot(ctx context.Context, lot ledger.Lot) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO lots (id, project_id, amount, owner_address, issued_at, vintage, retired)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		lot.ID.String(), int64(lot.ProjectID), lot.Amount.Int64(),
		lot.Owner.String(), lot.IssuedAt, int64(lot.Vintage), lot.Retired,
	)
	if err != nil {
		return fmt.Errorf("insert lot: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateLot(ctx context.Context, owner domain.AccountID, projectID domain.ProjectID, vintage domain.Vintage, amount domain.Amount, issuedAt time.Time) (ledger.Lot, error) {
	if amount <= 0 {
		return ledger.Lot{}, dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}
	id, err := s.nextID(ctx)
	if err != nil {
		return ledger.Lot{}, err
	}
	lot := ledger.Lot{
		ID:        id,
		ProjectID: projectID,
		Amount:    amount,
		Owner:     owner,
		IssuedAt:  issuedAt,
		Vintage:   vintage,
		Retired:   false,
	}
	if err := s.insertLot(ctx, lot); err != nil {
		return ledger.Lot{}, err
	}
	return lot, nil
}

func (s *PostgresStore) LotsOf(ctx context.Context, owner domain.AccountID) ([]ledger.Lot, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id::TEXT, project_id, amount, owner_address, issued_at, vintage, retired
		FROM lots WHERE owner_address = $1 ORDER BY id`, owner.String())
	if err != nil {
		return nil, fmt.Errorf("lots of %s: %w", owner, err)
	}
	defer rows.Close()

	result := make([]ledger.Lot, 0)
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lots of %s: %w", owner, err)
	}
	return result, nil
}

func (s *PostgresStore) ActiveBalance(ctx context.Context, owner domain.AccountID) (domain.Amount, error) {
	// SUM(BIGINT) yields NUMERIC, so the database never silently wraps;
	// the range check happens here after scanning the exact sum.
	var sum string
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)::TEXT
		FROM lots WHERE owner_address = $1 AND NOT retired AND amount > 0`,
		owner.String()).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("active balance of %s: %w", owner, err)
	}
	v, ok := new(big.Int).SetString(sum, 10)
	if !ok {
		return 0, fmt.Errorf("active balance of %s: unparseable sum %q", owner, sum)
	}
	if !v.IsInt64() {
		return 0, dErrors.New(dErrors.CodeOverflow, "active balance overflows")
	}
	return domain.Amount(v.Int64()), nil
}

func (s *PostgresStore) Consume(ctx context.Context, owner domain.AccountID, amount domain.Amount, sel Selector) ([]ledger.Consumption, error) {
	if sel != FIFO {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported selector: "+string(sel))
	}
	if amount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}
	ex := s.execer(ctx)

	rows, err := ex.QueryContext(ctx, `
		SELECT id::TEXT, amount
		FROM lots
		WHERE owner_address = $1 AND NOT retired AND amount > 0
		ORDER BY id
		FOR UPDATE`, owner.String())
	if err != nil {
		return nil, fmt.Errorf("lock lots for consume: %w", err)
	}
	defer rows.Close()

	remaining := amount
	var plan []ledger.Consumption
	for rows.Next() && remaining > 0 {
		var (
			id  domain.LotID
			amt int64
		)
		if err := rows.Scan(&id, &amt); err != nil {
			return nil, fmt.Errorf("scan lot for consume: %w", err)
		}
		take := domain.Amount(amt)
		if take > remaining {
			take = remaining
		}
		plan = append(plan, ledger.Consumption{LotID: id, Amount: take})
		remaining -= take
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lots for consume: %w", err)
	}
	rows.Close()

	if remaining > 0 {
		return nil, dErrors.New(dErrors.CodeInsufficientBalance, "insufficient balance")
	}

	for _, c := range plan {
		if _, err := ex.ExecContext(ctx,
			`UPDATE lots SET amount = amount - $2 WHERE id = $1`,
			c.LotID.String(), c.Amount.Int64()); err != nil {
			return nil, fmt.Errorf("reduce lot %s: %w", c.LotID, err)
		}
	}
	return plan, nil
}

func (s *PostgresStore) ApplyTransfer(ctx context.Context, consumed []ledger.Consumption, to domain.AccountID) ([]ledger.Lot, error) {
	return s.mintFrom(ctx, consumed, func(source ledger.Lot) (domain.AccountID, bool) {
		return to, false
	})
}

func (s *PostgresStore) ApplyRetire(ctx context.Context, consumed []ledger.Consumption) ([]ledger.Lot, error) {
	return s.mintFrom(ctx, consumed, func(source ledger.Lot) (domain.AccountID, bool) {
		return source.Owner, true
	})
}

// mintFrom mints one lot per consumption, copying provenance from the source
// lot; dest decides the new owner and retired flag.
func (s *PostgresStore) mintFrom(ctx context.Context, consumed []ledger.Consumption, dest func(source ledger.Lot) (domain.AccountID, bool)) ([]ledger.Lot, error) {
	minted := make([]ledger.Lot, 0, len(consumed))
	for _, c := range consumed {
		source, err := s.findLot(ctx, c.LotID)
		if err != nil {
			return nil, err
		}
		owner, retiredFlag := dest(source)
		id, err := s.nextID(ctx)
		if err != nil {
			return nil, err
		}
		lot := ledger.Lot{
			ID:        id,
			ProjectID: source.ProjectID,
			Amount:    c.Amount,
			Owner:     owner,
			IssuedAt:  source.IssuedAt,
			Vintage:   source.Vintage,
			Retired:   retiredFlag,
		}
		if err := s.insertLot(ctx, lot); err != nil {
			return nil, err
		}
		minted = append(minted, lot)
	}
	return minted, nil
}

func (s *PostgresStore) findLot(ctx context.Context, id domain.LotID) (ledger.Lot, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id::TEXT, project_id, amount, owner_address, issued_at, vintage, retired
		FROM lots WHERE id = $1`, id.String())
	return scanLot(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLot(row rowScanner) (ledger.Lot, error) {
	var (
		lot       ledger.Lot
		projectID int64
		amount    int64
		owner     string
		vintage   int64
	)
	err := row.Scan(&lot.ID, &projectID, &amount, &owner, &lot.IssuedAt, &vintage, &lot.Retired)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Lot{}, sentinel.ErrNotFound
	}
	if err != nil {
		return ledger.Lot{}, dErrors.Wrap(err, dErrors.CodeInternal, "scan lot")
	}
	lot.ProjectID = domain.ProjectID(projectID)
	lot.Amount = domain.Amount(amount)
	lot.Owner = domain.AccountID(owner)
	lot.Vintage = domain.Vintage(vintage)
	return lot, nil
}
