package worker

import (
	"context"
	"log/slog"
	"time"

	portsrepo "github.com/nexabank/nexabank_ledger/internal/core/ports/repositories"
)

// IdempotencyJanitor garbage-collects request keys past the retention
// window. After a key is purged, a resubmission under it counts as a new
// request.
type IdempotencyJanitor struct {
	idempotencyRepo portsrepo.IdempotencyRepository
	logger          *slog.Logger
	retention       time.Duration
	interval        time.Duration
}

// NewIdempotencyJanitor creates a janitor over the idempotency registry.
func NewIdempotencyJanitor(idempotencyRepo portsrepo.IdempotencyRepository, logger *slog.Logger, retention, interval time.Duration) *IdempotencyJanitor {
	return &IdempotencyJanitor{
		idempotencyRepo: idempotencyRepo,
		logger:          logger,
		retention:       retention,
		interval:        interval,
	}
}

// Run purges on every tick until ctx is cancelled.
func (j *IdempotencyJanitor) Run(ctx context.Context) {
	j.logger.Info("Idempotency janitor started",
		slog.Duration("retention", j.retention),
		slog.Duration("interval", j.interval),
	)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("Idempotency janitor stopped")
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-j.retention)
			removed, err := j.idempotencyRepo.PurgeExpired(ctx, cutoff)
			if err != nil {
				j.logger.Error("Failed to purge expired request keys", slog.String("error", err.Error()))
				continue
			}
			if removed > 0 {
				j.logger.Info("Purged expired request keys", slog.Int64("removed", removed))
			}
		}
	}
}
