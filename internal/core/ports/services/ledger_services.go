package services

import (
	"context"
	"time"

	"github.com/nexabank/nexabank_ledger/internal/core/domain"
)

// LedgerSvcFacade exposes read access over the immutable transfer history.
type LedgerSvcFacade interface {
	// GetHistory returns a page of an account's ledger entries,
	// most-recent-first, restartable via the returned cursor token.
	GetHistory(ctx context.Context, accountID string, kind *domain.TransferKind, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)

	// GetEntriesByTransferID returns both legs of one transfer for
	// reconciliation.
	GetEntriesByTransferID(ctx context.Context, transferID string) ([]domain.LedgerEntry, error)

	// GetSummary aggregates per-kind debit/credit totals for an account over
	// [from, to).
	GetSummary(ctx context.Context, accountID string, from, to time.Time) ([]domain.KindTotals, error)
}
