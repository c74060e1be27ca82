// Package audit captures an append-only trail of ledger mutations. Events
// flow publisher -> inbox channel -> worker -> sink, so producing an event
// never blocks the ledger write path.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"carbonledger/pkg/domain"
)

// Action identifies the ledger mutation an event records.
type Action string

const (
	ActionProjectRegistered  Action = "project_registered"
	ActionCreditsIssued      Action = "credits_issued"
	ActionCreditsTransferred Action = "credits_transferred"
	ActionCreditsRetired     Action = "credits_retired"
)

// Event is one audit record. Fields not meaningful for an action stay zero
// and are omitted from the serialized form.
type Event struct {
	ID        uuid.UUID        `json:"id"`
	Action    Action           `json:"action"`
	Timestamp time.Time        `json:"timestamp"`
	Actor     domain.AccountID `json:"actor"`
	ProjectID domain.ProjectID `json:"project_id,omitempty"`
	Vintage   domain.Vintage   `json:"vintage,omitempty"`
	Amount    domain.Amount    `json:"amount,omitempty"`
	Recipient domain.AccountID `json:"recipient,omitempty"`
	// TotalRetired carries the post-retirement global total on
	// ActionCreditsRetired events.
	TotalRetired domain.Amount `json:"total_retired,omitempty"`
}

// Store is an append-only audit sink.
type Store interface {
	Append(ctx context.Context, event Event) error
}
