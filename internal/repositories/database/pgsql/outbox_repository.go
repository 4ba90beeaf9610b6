package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexabank/nexabank_ledger/internal/apperrors"
	"github.com/nexabank/nexabank_ledger/internal/core/domain"
	portsrepo "github.com/nexabank/nexabank_ledger/internal/core/ports/repositories"
	"github.com/nexabank/nexabank_ledger/internal/models"
	"github.com/nexabank/nexabank_ledger/internal/utils/mapping"
)

// claimWindow is how long a claimed event stays invisible to other
// dispatchers. A dispatcher that crashes mid-delivery releases its claim by
// simply letting the window lapse.
const claimWindow = 2 * time.Minute

type PgxOutboxRepository struct {
	BaseRepository
}

// newPgxOutboxRepository creates a new repository for outbox events.
func newPgxOutboxRepository(pool *pgxpool.Pool) portsrepo.OutboxRepository {
	return &PgxOutboxRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxOutboxRepository implements portsrepo.OutboxRepository
var _ portsrepo.OutboxRepository = (*PgxOutboxRepository)(nil)

// LockNextPending claims the oldest due pending event. The inner SELECT uses
// FOR UPDATE SKIP LOCKED so concurrent dispatchers never fight over a row,
// and the claim itself is a lease: next_run_at jumps forward so the row is
// invisible until the claim window lapses.
func (r *PgxOutboxRepository) LockNextPending(ctx context.Context) (*domain.PendingNotification, error) {
	now := time.Now().UTC()
	query := `
		UPDATE outbox_events
		SET next_run_at = $2
		WHERE event_id = (
			SELECT event_id
			FROM outbox_events
			WHERE status = 'PENDING' AND next_run_at <= $1
			ORDER BY next_run_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING event_id, payload, attempts;
	`

	var m models.OutboxEvent
	err := r.Pool.QueryRow(ctx, query, now, now.Add(claimWindow)).Scan(&m.EventID, &m.Payload, &m.Attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: claim pending outbox event: %v", apperrors.ErrStorage, err)
	}
	n := mapping.ToPendingNotification(m)
	return &n, nil
}

// MarkSent records successful delivery of the event.
func (r *PgxOutboxRepository) MarkSent(ctx context.Context, eventID string, now time.Time) error {
	query := `
		UPDATE outbox_events
		SET status = 'SENT', sent_at = $2
		WHERE event_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, eventID, now)
	if err != nil {
		return fmt.Errorf("%w: mark outbox event %s sent: %v", apperrors.ErrStorage, eventID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: outbox event %s", apperrors.ErrNotFound, eventID)
	}
	return nil
}

// MarkRetry schedules another delivery attempt.
func (r *PgxOutboxRepository) MarkRetry(ctx context.Context, eventID string, attempts int, nextRunAt time.Time) error {
	query := `
		UPDATE outbox_events
		SET attempts = $2, next_run_at = $3
		WHERE event_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, eventID, attempts, nextRunAt)
	if err != nil {
		return fmt.Errorf("%w: schedule retry for outbox event %s: %v", apperrors.ErrStorage, eventID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: outbox event %s", apperrors.ErrNotFound, eventID)
	}
	return nil
}

// MarkFailed gives up on the event after exhausting delivery attempts.
func (r *PgxOutboxRepository) MarkFailed(ctx context.Context, eventID string) error {
	query := `
		UPDATE outbox_events
		SET status = 'FAILED'
		WHERE event_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, eventID)
	if err != nil {
		return fmt.Errorf("%w: mark outbox event %s failed: %v", apperrors.ErrStorage, eventID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: outbox event %s", apperrors.ErrNotFound, eventID)
	}
	return nil
}
