// Package ledger holds the domain records of the carbon credit ledger:
// registered projects and the credit lots that trace every issued tonne back
// to its project and vintage.
package ledger

import (
	"time"

	"carbonledger/pkg/domain"
)

// Project is a registered carbon-offset project. Everything except
// TotalCreditsIssued is immutable after registration.
type Project struct {
	ID          domain.ProjectID  `json:"id"`
	Name        string            `json:"name"`
	Location    string            `json:"location"`
	ProjectType string            `json:"project_type"`
	Description string            `json:"description"`
	Issuer      domain.AccountID  `json:"issuer"`
	CreatedAt   time.Time         `json:"created_at"`
	// TotalCreditsIssued is the running sum of every amount ever issued
	// against this project, including amounts since retired. Monotonic.
	TotalCreditsIssued domain.Amount `json:"total_credits_issued"`
}

// Lot is a batch of credits sharing one provenance (project, vintage,
// issuance time) under a single owner. Transfers and retirements split lots:
// the source lot keeps its identity with a reduced amount, and a new lot is
// minted for the moved portion carrying the same provenance fields.
type Lot struct {
	ID        domain.LotID     `json:"id"`
	ProjectID domain.ProjectID `json:"project_id"`
	Amount    domain.Amount    `json:"amount"`
	Owner     domain.AccountID `json:"owner"`
	IssuedAt  time.Time        `json:"issued_at"`
	Vintage   domain.Vintage   `json:"vintage"`
	Retired   bool             `json:"retired"`
}

// Active reports whether the lot still counts toward its owner's balance.
// Retired lots and fully consumed (zero amount) lots are historical records.
func (l Lot) Active() bool {
	return !l.Retired && l.Amount > 0
}

// CreditBatch describes a successful issuance.
type CreditBatch struct {
	ProjectID domain.ProjectID `json:"project_id"`
	Amount    domain.Amount    `json:"amount"`
	Vintage   domain.Vintage   `json:"vintage"`
	IssuedAt  time.Time        `json:"issued_at"`
}

// Consumption records how much was taken from one lot while satisfying a
// transfer or retirement. The slice returned by a FIFO consume is ordered by
// ascending lot id.
type Consumption struct {
	LotID  domain.LotID
	Amount domain.Amount
}
