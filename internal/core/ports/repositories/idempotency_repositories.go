package repositories

import (
	"context"
	"time"

	"github.com/nexabank/nexabank_ledger/internal/core/domain"
)

// IdempotencyRepository is durable storage for request keys. The backing
// table carries a uniqueness constraint on the key so that two concurrent
// TryBegin calls race safely: exactly one observes BeginStarted.
type IdempotencyRepository interface {
	// TryBegin inserts a pending record for requestKey if none exists and
	// reports what it found. For BeginAlreadyCompleted / BeginAlreadyFailed
	// the existing record (including the stored result) is returned.
	TryBegin(ctx context.Context, requestKey string, now time.Time) (domain.BeginOutcome, *domain.IdempotencyRecord, error)

	// Resolve transitions the record for requestKey out of pending, storing
	// the result so retries observe the identical outcome.
	Resolve(ctx context.Context, requestKey string, status domain.IdempotencyStatus, result *domain.TransferResult, now time.Time) error

	// Reopen flips a failed record back to pending so a retry can run the
	// request again. Returns true if this caller won the reset. Used only for
	// failures worth retrying (timeouts, transient storage errors).
	Reopen(ctx context.Context, requestKey string, now time.Time) (bool, error)

	// PurgeExpired deletes records older than the retention cutoff and
	// returns how many were removed. After expiry a repeated key is treated
	// as a new request.
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
