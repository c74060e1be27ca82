// Package meta persists one-time ledger setup state.
package meta

import "context"

// Store records whether the ledger has been initialized. Initialization is
// a one-shot marker; the counters themselves start at their zero values.
type Store interface {
	// Initialize marks the ledger initialized. Returns sentinel.ErrConflict
	// when it already was.
	Initialize(ctx context.Context) error

	// Initialized reports whether Initialize has run.
	Initialized(ctx context.Context) (bool, error)
}
