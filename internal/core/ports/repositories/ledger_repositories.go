package repositories

import (
	"context"
	"time"

	"github.com/nexabank/nexabank_ledger/internal/core/domain"
)

// LedgerReader defines read access over the append-only ledger. There is no
// writer interface: entries are appended only inside TransferWriter's atomic
// unit and are never updated or deleted afterwards.
type LedgerReader interface {
	// FindEntriesByTransferID retrieves both legs of one transfer, for
	// reconciliation.
	FindEntriesByTransferID(ctx context.Context, transferID string) ([]domain.LedgerEntry, error)

	// ListEntriesByAccountID retrieves a page of an account's history,
	// most-recent-first, using token-based pagination. kind optionally
	// restricts the page to one transfer kind. Returns the entries, a token
	// for the next page, and an error.
	ListEntriesByAccountID(ctx context.Context, accountID string, kind *domain.TransferKind, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)

	// SummarizeByKind aggregates an account's debit/credit totals per transfer
	// kind over [from, to).
	SummarizeByKind(ctx context.Context, accountID string, from, to time.Time) ([]domain.KindTotals, error)
}
