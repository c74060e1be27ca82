package domain

import (
	"strings"

	dErrors "carbonledger/pkg/domain-errors"
)

// AccountID identifies a credit holder or project issuer. The ledger treats
// it as an opaque address supplied by the already-authenticated caller.
//
// Usage: construct via ParseAccountID at trust boundaries; direct casting
// bypasses validation.
type AccountID string

// ParseAccountID constructs an AccountID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or whitespace.
func ParseAccountID(s string) (AccountID, error) {
	if strings.TrimSpace(s) == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address cannot be empty")
	}
	return AccountID(s), nil
}

func (a AccountID) String() string {
	return string(a)
}

// ProjectID identifies a registered carbon-offset project. Ids are assigned
// monotonically starting at 1 and are never reused; 0 is never a valid id.
type ProjectID uint32

// IsValid reports whether the id could have been assigned by the registry.
func (p ProjectID) IsValid() bool {
	return p > 0
}

// Vintage is the year the underlying emissions reduction occurred.
// Acceptable bounds are policy, configured on the ledger service, not
// encoded here.
type Vintage uint32
