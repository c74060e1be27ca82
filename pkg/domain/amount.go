package domain

import (
	"math"

	dErrors "carbonledger/pkg/domain-errors"
)

// Amount is a credit quantity. Stored amounts are always non-negative; the
// positive-amount requirement on requests is enforced by ParseAmount at the
// boundary and re-checked by the service.
type Amount int64

// MaxAmount is the largest representable credit quantity.
const MaxAmount Amount = math.MaxInt64

// ParseAmount validates a caller-supplied quantity.
//
// Errors: returns CodeInvalidInput when the value is not strictly positive.
func ParseAmount(v int64) (Amount, error) {
	if v <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}
	return Amount(v), nil
}

// Add returns a+b with an overflow check. Both operands are expected to be
// non-negative; the ledger never subtracts below zero.
//
// Errors: returns CodeOverflow when the true sum exceeds MaxAmount.
func (a Amount) Add(b Amount) (Amount, error) {
	if b > MaxAmount-a {
		return 0, dErrors.New(dErrors.CodeOverflow, "amount overflows")
	}
	return a + b, nil
}

func (a Amount) Int64() int64 {
	return int64(a)
}
