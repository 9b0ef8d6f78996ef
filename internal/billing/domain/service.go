package domain

import (
	"context"
)

// Service is the billing meter. It runs after the activity record is
// finalized, only when a principal was resolved.
type Service interface {
	// Charge prices the current request against the principal's policy and
	// debits the accrued cost from its token balance. Returns the amount
	// debited. It must never fail the response; the pipeline logs errors.
	Charge(ctx context.Context) (int64, error)
}
