// Package registry stores registered carbon-offset projects and allocates
// their monotonic ids.
package registry

import (
	"context"

	"carbonledger/internal/ledger"
	"carbonledger/pkg/domain"
)

// Store persists projects. Implementations report infrastructure facts via
// pkg/platform/sentinel; the ledger service translates them into domain
// errors.
type Store interface {
	// NextID allocates the next project id. Ids start at 1 and are never
	// reused, even when the enclosing operation later fails.
	NextID(ctx context.Context) (domain.ProjectID, error)

	// Save inserts a new project record.
	Save(ctx context.Context, project ledger.Project) error

	// Find returns the project or sentinel.ErrNotFound.
	Find(ctx context.Context, id domain.ProjectID) (ledger.Project, error)

	// List returns all projects in ascending id order. A registry with no
	// projects returns an empty slice, not an error.
	List(ctx context.Context) ([]ledger.Project, error)

	// RecordIssuance adds amount to the project's total_credits_issued.
	// Returns sentinel.ErrNotFound for unknown projects and a CodeOverflow
	// domain error when the running total would exceed the representable
	// range.
	RecordIssuance(ctx context.Context, id domain.ProjectID, amount domain.Amount) error
}
