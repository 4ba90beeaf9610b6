package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/nexabank/nexabank_ledger/internal/core/domain"
	"github.com/nexabank/nexabank_ledger/internal/core/notifications"
	portsrepo "github.com/nexabank/nexabank_ledger/internal/core/ports/repositories"
)

// OutboxDispatcher drains the transactional outbox: it claims pending
// completion events and delivers them to the notification endpoint.
// Delivery is best-effort and strictly after commit; a transfer is never
// blocked or rolled back by a delivery failure.
type OutboxDispatcher struct {
	outboxRepo   portsrepo.OutboxRepository
	sender       notifications.Sender
	logger       *slog.Logger
	pollInterval time.Duration
	retryBackoff time.Duration
	maxAttempts  int
}

// NewOutboxDispatcher creates a dispatcher over the outbox queue.
func NewOutboxDispatcher(outboxRepo portsrepo.OutboxRepository, sender notifications.Sender, logger *slog.Logger, pollInterval, retryBackoff time.Duration, maxAttempts int) *OutboxDispatcher {
	return &OutboxDispatcher{
		outboxRepo:   outboxRepo,
		sender:       sender,
		logger:       logger,
		pollInterval: pollInterval,
		retryBackoff: retryBackoff,
		maxAttempts:  maxAttempts,
	}
}

// Run polls until ctx is cancelled. It drains every due event each tick, so
// a burst of transfers does not wait one poll interval per event.
func (d *OutboxDispatcher) Run(ctx context.Context) {
	d.logger.Info("Outbox dispatcher started", slog.Duration("poll_interval", d.pollInterval))

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Outbox dispatcher stopped")
			return
		case <-ticker.C:
			d.drain(ctx)
		}
	}
}

func (d *OutboxDispatcher) drain(ctx context.Context) {
	for {
		event, err := d.outboxRepo.LockNextPending(ctx)
		if err != nil {
			d.logger.Error("Failed to claim pending event", slog.String("error", err.Error()))
			return
		}
		if event == nil {
			return
		}
		d.deliver(ctx, event)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (d *OutboxDispatcher) deliver(ctx context.Context, event *domain.PendingNotification) {
	if err := d.sender.Send(ctx, event.Payload); err != nil {
		d.handleFailure(ctx, event, err)
		return
	}

	if err := d.outboxRepo.MarkSent(ctx, event.EventID, time.Now().UTC()); err != nil {
		d.logger.Error("Failed to mark event sent", slog.String("event_id", event.EventID), slog.String("error", err.Error()))
		return
	}
	d.logger.Info("Notification delivered", slog.String("event_id", event.EventID))
}

func (d *OutboxDispatcher) handleFailure(ctx context.Context, event *domain.PendingNotification, cause error) {
	attempts := event.Attempts + 1
	if attempts >= d.maxAttempts {
		d.logger.Error("Giving up on notification",
			slog.String("event_id", event.EventID),
			slog.Int("attempts", attempts),
			slog.String("error", cause.Error()),
		)
		if err := d.outboxRepo.MarkFailed(ctx, event.EventID); err != nil {
			d.logger.Error("Failed to mark event failed", slog.String("event_id", event.EventID), slog.String("error", err.Error()))
		}
		return
	}

	// Linear-in-attempts backoff keeps a flapping endpoint from being hammered.
	nextRunAt := time.Now().UTC().Add(time.Duration(attempts) * d.retryBackoff)
	d.logger.Warn("Notification delivery failed, scheduling retry",
		slog.String("event_id", event.EventID),
		slog.Int("attempts", attempts),
		slog.Time("next_run_at", nextRunAt),
		slog.String("error", cause.Error()),
	)
	if err := d.outboxRepo.MarkRetry(ctx, event.EventID, attempts, nextRunAt); err != nil {
		d.logger.Error("Failed to schedule retry", slog.String("event_id", event.EventID), slog.String("error", err.Error()))
	}
}
