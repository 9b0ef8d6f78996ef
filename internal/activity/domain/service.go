package domain

import (
	"context"
	"time"
)

type OpenParams struct {
	Ref      string
	Endpoint string
	Headers  map[string]any
	Payload  string
}

type FinalizeParams struct {
	ResponseData string
	Headers      map[string]any
	ActorID      *int64
	Cost         int64
}

// Service is the activity ledger. Exactly one record is opened and exactly
// one is finalized per request, on every exit path.
type Service interface {
	// Open persists the record before the domain handler runs. The ledger is
	// load-bearing: if Open fails the request must be aborted.
	Open(ctx context.Context, p OpenParams) (*ActivityRecord, error)

	// Finalize writes the final field set keyed by the request reference. It
	// is idempotent under retry: the same params applied twice converge on
	// the same stored record. It runs inside the teardown hook and must
	// never fail the response; callers log its error and move on.
	Finalize(ctx context.Context, ref string, p FinalizeParams) error

	// CountForUserSince counts the user's ledger rows in the billing window.
	CountForUserSince(ctx context.Context, userID int64, since time.Time) (int64, error)

	// GetByRef fetches a record by request reference.
	GetByRef(ctx context.Context, ref string) (*ActivityRecord, error)
}
