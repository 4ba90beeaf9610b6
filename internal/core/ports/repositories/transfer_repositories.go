package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/nexabank/nexabank_ledger/internal/core/domain"
)

// TransferWriter persists a transfer's full effect as one atomic unit.
type TransferWriter interface {
	// ApplyTransfer executes the engine's durable step inside a single
	// database transaction: insert the transfer row, lock the touched account
	// rows, apply version-checked balance deltas, append the ledger legs with
	// their balance_after values, and queue the completion event in the
	// outbox. Either every write lands or none do.
	//
	// Returned errors match apperrors sentinels: ErrNotFound (account vanished),
	// ErrVersionConflict (stale version), ErrInsufficientBalance (balance would
	// go negative), ErrDuplicate (transfer or request key already applied), or
	// ErrStorage for any other durable-write failure.
	ApplyTransfer(ctx context.Context, transfer domain.Transfer, entries []domain.LedgerEntry, deltas map[string]decimal.Decimal, expectedVersions map[string]int64, event domain.TransferEvent) error
}

// TransferReader defines read operations over applied transfers.
type TransferReader interface {
	// FindTransferByID retrieves a transfer row by its ID.
	FindTransferByID(ctx context.Context, transferID string) (*domain.Transfer, error)
}

// TransferRepositoryFacade combines transfer persistence interfaces.
type TransferRepositoryFacade interface {
	TransferWriter
	TransferReader
}
