// Package lots stores credit lots and implements the FIFO consumption
// algorithm shared by transfer and retirement.
package lots

import (
	"context"
	"time"

	"carbonledger/internal/ledger"
	"carbonledger/pkg/domain"
)

// Selector names a lot selection order for Consume. FIFO is the only order:
// deterministic oldest-first selection is what lets two replicas computing
// the same operation over the same state reach the same resulting lot set.
type Selector string

const FIFO Selector = "fifo"

// Store persists credit lots. Lot ids come from a monotonic 128-bit counter
// shared by issuance and splits; a lot record is never deleted, only driven
// to zero amount or marked retired.
type Store interface {
	// CreateLot mints a fresh active lot for an issuance and returns it.
	CreateLot(ctx context.Context, owner domain.AccountID, projectID domain.ProjectID, vintage domain.Vintage, amount domain.Amount, issuedAt time.Time) (ledger.Lot, error)

	// LotsOf returns every lot currently owned by owner, retired and active
	// alike, in ascending lot id order.
	LotsOf(ctx context.Context, owner domain.AccountID) ([]ledger.Lot, error)

	// ActiveBalance sums the amounts of owner's non-retired lots with
	// overflow-checked addition. An owner with no lots has balance 0.
	ActiveBalance(ctx context.Context, owner domain.AccountID) (domain.Amount, error)

	// Consume selects owner's active lots in the given order, taking from
	// each until amount is covered. A partially needed lot is split in
	// place: its amount drops by the taken portion; a fully drained lot
	// stays behind as a zero-amount historical record. Returns
	// CodeInsufficientBalance without mutating anything when owner's active
	// balance is below amount.
	Consume(ctx context.Context, owner domain.AccountID, amount domain.Amount, sel Selector) ([]ledger.Consumption, error)

	// ApplyTransfer mints a new active lot under to for each consumed
	// portion, copying project id, vintage, and issuance time from the
	// source lot.
	ApplyTransfer(ctx context.Context, consumed []ledger.Consumption, to domain.AccountID) ([]ledger.Lot, error)

	// ApplyRetire mints a retired lot under the original owner for each
	// consumed portion, preserving provenance so retirement stays auditable
	// by project and vintage.
	ApplyRetire(ctx context.Context, consumed []ledger.Consumption) ([]ledger.Lot, error)
}
