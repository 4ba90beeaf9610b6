package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nexabank/nexabank_ledger/internal/apperrors"
	"github.com/nexabank/nexabank_ledger/internal/core/domain"
	portsrepo "github.com/nexabank/nexabank_ledger/internal/core/ports/repositories"
	"github.com/nexabank/nexabank_ledger/internal/models"
	"github.com/nexabank/nexabank_ledger/internal/utils/mapping"
)

type PgxTransferRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
}

// newPgxTransferRepository creates a new repository for transfer data.
func newPgxTransferRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountRepositoryFacade) portsrepo.TransferRepositoryFacade {
	return &PgxTransferRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

// Ensure PgxTransferRepository implements portsrepo.TransferRepositoryFacade
var _ portsrepo.TransferRepositoryFacade = (*PgxTransferRepository)(nil)

// ApplyTransfer persists a transfer's full effect within one database
// transaction: the transfer row, the version-checked balance updates, the
// ledger legs with balance_after, and the outbox event. No observer can ever
// see a balance change without its matching ledger entry, or vice versa.
func (r *PgxTransferRepository) ApplyTransfer(ctx context.Context, transfer domain.Transfer, entries []domain.LedgerEntry, deltas map[string]decimal.Decimal, expectedVersions map[string]int64, event domain.TransferEvent) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin transfer transaction: %v", apperrors.ErrStorage, err)
	}
	// Ignored if the transaction commits.
	defer r.Rollback(ctx, tx)

	// 1. Insert the transfer row. The request_key uniqueness constraint makes
	// a double-apply of the same intent impossible even if every other guard
	// were bypassed.
	if err := insertTransfer(ctx, tx, transfer); err != nil {
		return err
	}

	// 2. Lock the touched account rows and re-read their balances.
	accountIDs := make([]string, 0, len(deltas))
	for accID := range deltas {
		accountIDs = append(accountIDs, accID)
	}
	sort.Strings(accountIDs)

	lockedAccounts, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: lock accounts for transfer %s: %v", apperrors.ErrStorage, transfer.TransferID, err)
	}

	// 3. Re-validate under the row locks: versions still current, balances
	// stay non-negative once the deltas land.
	for _, accID := range accountIDs {
		locked := lockedAccounts[accID]
		if expected, ok := expectedVersions[accID]; ok && locked.Version != expected {
			return fmt.Errorf("%w: account %s is at version %d, expected %d", apperrors.ErrVersionConflict, accID, locked.Version, expected)
		}
		if locked.Balance.Add(deltas[accID]).IsNegative() {
			return fmt.Errorf("%w: account %s balance %s cannot cover delta %s", apperrors.ErrInsufficientBalance, accID, locked.Balance.String(), deltas[accID].String())
		}
	}

	// 4. Apply the balance deltas with the version bump.
	if err := r.accountRepo.ApplyBalanceDeltasInTx(ctx, tx, deltas, expectedVersions, transfer.CreatedAt); err != nil {
		if errors.Is(err, apperrors.ErrVersionConflict) || errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: update balances for transfer %s: %v", apperrors.ErrStorage, transfer.TransferID, err)
	}

	// 5. Append the ledger legs, carrying the balance after each leg.
	if err := insertLedgerEntries(ctx, tx, transfer, entries, lockedAccounts); err != nil {
		return err
	}

	// 6. Queue the completion event in the outbox, inside the same unit.
	if err := insertOutboxEvent(ctx, tx, event, transfer); err != nil {
		return err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return fmt.Errorf("%w: commit transfer %s: %v", apperrors.ErrStorage, transfer.TransferID, err)
	}

	return nil
}

func insertTransfer(ctx context.Context, tx pgx.Tx, transfer domain.Transfer) error {
	modelTransfer := mapping.ToModelTransfer(transfer)

	metadataJSON, err := json.Marshal(modelTransfer.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata for transfer %s: %w", modelTransfer.TransferID, err)
	}

	query := `
		INSERT INTO transfers (transfer_id, request_key, kind, amount, currency_code, source_account_id, dest_account_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err = tx.Exec(ctx, query,
		modelTransfer.TransferID,
		modelTransfer.RequestKey,
		modelTransfer.Kind,
		modelTransfer.Amount,
		modelTransfer.CurrencyCode,
		modelTransfer.SourceAccountID,
		modelTransfer.DestAccountID,
		metadataJSON,
		modelTransfer.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			return fmt.Errorf("%w: transfer for request key %s already applied", apperrors.ErrDuplicate, modelTransfer.RequestKey)
		}
		return fmt.Errorf("%w: insert transfer %s: %v", apperrors.ErrStorage, modelTransfer.TransferID, err)
	}
	return nil
}

func insertLedgerEntries(ctx context.Context, tx pgx.Tx, transfer domain.Transfer, entries []domain.LedgerEntry, lockedAccounts map[string]domain.Account) error {
	query := `
		INSERT INTO ledger_entries (entry_id, transfer_id, account_id, direction, amount, balance_after, kind, currency_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`

	// Track the running balance per account within this transfer, starting
	// from the balance read under the row lock.
	runningBalances := make(map[string]decimal.Decimal, len(lockedAccounts))
	for accID, locked := range lockedAccounts {
		runningBalances[accID] = locked.Balance
	}

	batch := &pgx.Batch{}
	for _, entry := range entries {
		if _, ok := runningBalances[entry.AccountID]; !ok {
			return fmt.Errorf("internal error: locked account %s not found during entry processing", entry.AccountID)
		}

		newBalance := runningBalances[entry.AccountID].Add(entry.SignedAmount())
		runningBalances[entry.AccountID] = newBalance

		modelEntry := mapping.ToModelLedgerEntry(entry)
		modelEntry.BalanceAfter = newBalance
		modelEntry.CreatedAt = transfer.CreatedAt

		batch.Queue(query,
			modelEntry.EntryID,
			modelEntry.TransferID,
			modelEntry.AccountID,
			modelEntry.Direction,
			modelEntry.Amount,
			modelEntry.BalanceAfter,
			modelEntry.Kind,
			modelEntry.CurrencyCode,
			modelEntry.CreatedAt,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("%w: insert ledger entries for transfer %s: %v", apperrors.ErrStorage, transfer.TransferID, err)
	}
	return nil
}

func insertOutboxEvent(ctx context.Context, tx pgx.Tx, event domain.TransferEvent, transfer domain.Transfer) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode outbox payload for transfer %s: %w", transfer.TransferID, err)
	}

	query := `
		INSERT INTO outbox_events (event_id, payload, status, attempts, next_run_at, created_at)
		VALUES ($1, $2, 'PENDING', 0, $3, $3);
	`
	if _, err := tx.Exec(ctx, query, event.EventID, payload, transfer.CreatedAt); err != nil {
		return fmt.Errorf("%w: queue outbox event for transfer %s: %v", apperrors.ErrStorage, transfer.TransferID, err)
	}
	return nil
}

// FindTransferByID retrieves a transfer by its ID.
func (r *PgxTransferRepository) FindTransferByID(ctx context.Context, transferID string) (*domain.Transfer, error) {
	query := `
		SELECT transfer_id, request_key, kind, amount, currency_code, source_account_id, dest_account_id, metadata, created_at
		FROM transfers
		WHERE transfer_id = $1;
	`

	var m models.Transfer
	var metadataJSON []byte
	err := r.Pool.QueryRow(ctx, query, transferID).Scan(
		&m.TransferID,
		&m.RequestKey,
		&m.Kind,
		&m.Amount,
		&m.CurrencyCode,
		&m.SourceAccountID,
		&m.DestAccountID,
		&metadataJSON,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find transfer by ID "+transferID, err)
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &m.Metadata); err != nil {
			return nil, apperrors.NewAppError(500, "failed to decode metadata for transfer "+transferID, err)
		}
	}

	domainTransfer := mapping.ToDomainTransfer(m)
	return &domainTransfer, nil
}
