package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nexabank/nexabank_ledger/internal/core/domain"
)

// AccountReader defines lock-free read operations for account data.
type AccountReader interface {
	// FindAccountByID retrieves an account snapshot by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountsByIDs retrieves multiple accounts keyed by ID. Missing IDs
	// are simply absent from the map; the caller decides whether that is an error.
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)
}

// AccountWriter defines provisioning operations. Balance mutation is NOT
// here on purpose: balances change only through the transfer engine's atomic
// unit (see TransferWriter).
type AccountWriter interface {
	// SaveAccount inserts a new account row.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccountStatus transitions an account's status (active/frozen/closed).
	UpdateAccountStatus(ctx context.Context, accountID string, status domain.AccountStatus, now time.Time) error
}

// AccountTxOperator defines the in-transaction operations the transfer
// repository composes into one atomic unit.
type AccountTxOperator interface {
	// FindAccountsByIDsForUpdate retrieves accounts by IDs and takes row-level
	// locks (SELECT ... FOR UPDATE). Must be called within a transaction.
	// Returns an error matching apperrors.ErrNotFound if any ID is missing.
	FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error)

	// ApplyBalanceDeltasInTx applies signed balance deltas, bumping each row's
	// version and rejecting stale writes: a row whose version no longer equals
	// expectedVersions[id] yields an error matching apperrors.ErrVersionConflict.
	ApplyBalanceDeltasInTx(ctx context.Context, tx pgx.Tx, deltas map[string]decimal.Decimal, expectedVersions map[string]int64, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces.
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountTxOperator
}
