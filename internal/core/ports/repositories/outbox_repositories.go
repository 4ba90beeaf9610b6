package repositories

import (
	"context"
	"time"

	"github.com/nexabank/nexabank_ledger/internal/core/domain"
)

// OutboxRepository is the durable queue of completion events awaiting
// delivery. Rows are enqueued inside TransferWriter.ApplyTransfer's atomic
// unit; the dispatcher drains them here.
type OutboxRepository interface {
	// LockNextPending claims the oldest due pending event, skipping rows
	// already locked by a concurrent dispatcher (FOR UPDATE SKIP LOCKED).
	// Returns nil when nothing is due.
	LockNextPending(ctx context.Context) (*domain.PendingNotification, error)

	// MarkSent records successful delivery.
	MarkSent(ctx context.Context, eventID string, now time.Time) error

	// MarkRetry schedules another attempt after a backoff.
	MarkRetry(ctx context.Context, eventID string, attempts int, nextRunAt time.Time) error

	// MarkFailed gives up on the event. Delivery is best-effort; the transfer
	// itself stays committed.
	MarkFailed(ctx context.Context, eventID string) error
}
