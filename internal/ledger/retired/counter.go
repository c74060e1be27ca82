// Package retired tracks the global total of retired credits.
package retired

import (
	"context"

	"carbonledger/pkg/domain"
)

// Counter is the process-wide retirement total. It only ever increases.
type Counter interface {
	// Add increments the total by amount and returns the new total.
	// Returns a CodeOverflow domain error when the total would exceed the
	// representable range, leaving the counter unchanged.
	Add(ctx context.Context, amount domain.Amount) (domain.Amount, error)

	// Total returns the current total. A fresh ledger reports 0.
	Total(ctx context.Context) (domain.Amount, error)
}
