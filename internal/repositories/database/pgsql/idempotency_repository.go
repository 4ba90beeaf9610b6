package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexabank/nexabank_ledger/internal/apperrors"
	"github.com/nexabank/nexabank_ledger/internal/core/domain"
	portsrepo "github.com/nexabank/nexabank_ledger/internal/core/ports/repositories"
	"github.com/nexabank/nexabank_ledger/internal/models"
)

type PgxIdempotencyRepository struct {
	BaseRepository
}

// newPgxIdempotencyRepository creates a new repository for idempotency keys.
func newPgxIdempotencyRepository(pool *pgxpool.Pool) portsrepo.IdempotencyRepository {
	return &PgxIdempotencyRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxIdempotencyRepository implements portsrepo.IdempotencyRepository
var _ portsrepo.IdempotencyRepository = (*PgxIdempotencyRepository)(nil)

// TryBegin claims requestKey for the current request. The conditional insert
// rides on the primary key: of two concurrent calls with the same key exactly
// one inserts and observes BeginStarted, the other reads the existing row.
func (r *PgxIdempotencyRepository) TryBegin(ctx context.Context, requestKey string, now time.Time) (domain.BeginOutcome, *domain.IdempotencyRecord, error) {
	insertQuery := `
		INSERT INTO idempotency_keys (request_key, status, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (request_key) DO NOTHING;
	`
	tag, err := r.Pool.Exec(ctx, insertQuery, requestKey, string(domain.IdempotencyPending), now)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: claim idempotency key %s: %v", apperrors.ErrStorage, requestKey, err)
	}
	if tag.RowsAffected() > 0 {
		return domain.BeginStarted, nil, nil
	}

	selectQuery := `
		SELECT request_key, status, result, created_at, resolved_at
		FROM idempotency_keys
		WHERE request_key = $1;
	`
	var m models.IdempotencyRecord
	err = r.Pool.QueryRow(ctx, selectQuery, requestKey).Scan(
		&m.RequestKey,
		&m.Status,
		&m.Result,
		&m.CreatedAt,
		&m.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Row purged between insert and read. Treat as a lost race.
			return domain.BeginAlreadyPending, nil, nil
		}
		return 0, nil, fmt.Errorf("%w: read idempotency key %s: %v", apperrors.ErrStorage, requestKey, err)
	}

	record := domain.IdempotencyRecord{
		RequestKey: m.RequestKey,
		Status:     domain.IdempotencyStatus(m.Status),
		CreatedAt:  m.CreatedAt,
		ResolvedAt: m.ResolvedAt,
	}
	if len(m.Result) > 0 {
		var result domain.TransferResult
		if err := json.Unmarshal(m.Result, &result); err != nil {
			return 0, nil, fmt.Errorf("failed to decode stored result for key %s: %w", requestKey, err)
		}
		record.Result = &result
	}

	switch record.Status {
	case domain.IdempotencyCompleted:
		return domain.BeginAlreadyCompleted, &record, nil
	case domain.IdempotencyFailed:
		return domain.BeginAlreadyFailed, &record, nil
	default:
		return domain.BeginAlreadyPending, &record, nil
	}
}

// Resolve transitions a pending key to its terminal status, storing the
// result retries will be served from. Resolving an already-resolved key is a
// no-op so a crash between resolve and response stays harmless.
func (r *PgxIdempotencyRepository) Resolve(ctx context.Context, requestKey string, status domain.IdempotencyStatus, result *domain.TransferResult, now time.Time) error {
	var resultJSON []byte
	if result != nil {
		var err error
		resultJSON, err = json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode result for key %s: %w", requestKey, err)
		}
	}

	query := `
		UPDATE idempotency_keys
		SET status = $2, result = $3, resolved_at = $4
		WHERE request_key = $1 AND status = $5;
	`
	tag, err := r.Pool.Exec(ctx, query, requestKey, string(status), resultJSON, now, string(domain.IdempotencyPending))
	if err != nil {
		return fmt.Errorf("%w: resolve idempotency key %s: %v", apperrors.ErrStorage, requestKey, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: idempotency key %s is not pending", apperrors.ErrNotFound, requestKey)
	}
	return nil
}

// Reopen resets a failed key back to pending so the request can be retried.
// The conditional update makes the reset race-safe: of two concurrent retries
// exactly one flips the row and reports true.
func (r *PgxIdempotencyRepository) Reopen(ctx context.Context, requestKey string, now time.Time) (bool, error) {
	query := `
		UPDATE idempotency_keys
		SET status = $2, result = NULL, resolved_at = NULL, created_at = $3
		WHERE request_key = $1 AND status = $4;
	`
	tag, err := r.Pool.Exec(ctx, query, requestKey, string(domain.IdempotencyPending), now, string(domain.IdempotencyFailed))
	if err != nil {
		return false, fmt.Errorf("%w: reopen idempotency key %s: %v", apperrors.ErrStorage, requestKey, err)
	}
	return tag.RowsAffected() > 0, nil
}

// PurgeExpired removes keys older than the retention cutoff. Pending rows
// past the cutoff are removed too: a crash between claim and resolve must not
// block the key forever, and a re-applied transfer is still caught by the
// request_key uniqueness constraint on the transfers table.
func (r *PgxIdempotencyRepository) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM idempotency_keys
		WHERE resolved_at < $1 OR (resolved_at IS NULL AND created_at < $1);
	`
	tag, err := r.Pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: purge expired idempotency keys: %v", apperrors.ErrStorage, err)
	}
	return tag.RowsAffected(), nil
}
