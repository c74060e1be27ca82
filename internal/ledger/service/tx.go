package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"carbonledger/internal/ledger/lots"
	"carbonledger/internal/ledger/meta"
	"carbonledger/internal/ledger/registry"
	"carbonledger/internal/ledger/retired"
	dErrors "carbonledger/pkg/domain-errors"
	txcontext "carbonledger/pkg/platform/tx"
)

// Stores bundles the persistence surfaces a ledger mutation may touch.
type Stores struct {
	Registry registry.Store
	Lots     lots.Store
	Retired  retired.Counter
	Meta     meta.Store
}

// TxRunner provides the transactional boundary for ledger mutations: fn runs
// with serializable isolation over the full state and either all of its
// writes become visible or none do.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}

// defaultTxTimeout bounds a ledger transaction so a stalled caller cannot
// hold the write lock indefinitely.
const defaultTxTimeout = 5 * time.Second

// MemoryTxRunner serializes mutations with a single lock. Unlike a per-user
// sharded lock, one lock is correct here: every mutation may touch the
// global counters (project totals, total retired), so there is no disjoint
// key space to shard over. Mutating functions are written validation-first,
// so a failed fn has made no writes by the time it returns.
type MemoryTxRunner struct {
	mu      sync.Mutex
	stores  Stores
	timeout time.Duration
}

func NewMemoryTxRunner(stores Stores) *MemoryTxRunner {
	return &MemoryTxRunner{stores: stores, timeout: defaultTxTimeout}
}

func (r *MemoryTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "transaction aborted: context cancelled")
	}
	// Once fn starts applying it runs to completion; cancellation mid-apply
	// would leave conservation invariants broken.
	return fn(ctx, r.stores)
}

// PostgresTxRunner wraps each mutation in a serializable SQL transaction.
// The *sql.Tx travels through context; postgres stores pick it up via
// pkg/platform/tx and join the same atomic commit.
type PostgresTxRunner struct {
	db     *sql.DB
	stores Stores
}

func NewPostgresTxRunner(db *sql.DB, stores Stores) *PostgresTxRunner {
	return &PostgresTxRunner{db: db, stores: stores}
}

func (r *PostgresTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "begin transaction")
	}
	if err := fn(txcontext.WithTx(ctx, tx), r.stores); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return dErrors.Wrap(fmt.Errorf("%w (rollback: %v)", err, rbErr), dErrors.CodeOf(err), "rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "commit transaction")
	}
	return nil
}
