package pgsql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

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

const accountColumns = `account_id, account_number, holder_name, currency_code, status, balance, version, created_at, last_updated_at`

type PgxAccountRepository struct {
	pool *pgxpool.Pool
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{pool: pool}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (models.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID,
		&m.AccountNumber,
		&m.HolderName,
		&m.CurrencyCode,
		&m.Status,
		&m.Balance,
		&m.Version,
		&m.CreatedAt,
		&m.LastUpdatedAt,
	)
	return m, err
}

// SaveAccount inserts a new account row.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	modelAcc := mapping.ToModelAccount(account)

	query := `
		INSERT INTO accounts (account_id, account_number, holder_name, currency_code, status, balance, version, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.pool.Exec(ctx, query,
		modelAcc.AccountID,
		modelAcc.AccountNumber,
		modelAcc.HolderName,
		modelAcc.CurrencyCode,
		modelAcc.Status,
		modelAcc.Balance,
		modelAcc.Version,
		modelAcc.CreatedAt,
		modelAcc.LastUpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // Unique violation
				return fmt.Errorf("%w: account with ID %s or number %s already exists", apperrors.ErrDuplicate, modelAcc.AccountID, modelAcc.AccountNumber)
			}
		}
		return fmt.Errorf("failed to save account %s: %w", modelAcc.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves an account by its ID. Reads take no lock; a
// snapshot may be stale by the time the caller uses it, which is why the
// engine re-reads under row locks before applying deltas.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`

	modelAcc, err := scanAccount(r.pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by ID %s: %w", accountID, err)
	}

	domainAcc := mapping.ToDomainAccount(modelAcc)
	return &domainAcc, nil
}

// FindAccountsByIDs retrieves multiple accounts by their IDs.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = ANY($1);`

	rows, err := r.pool.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by IDs: %w", err)
	}
	defer rows.Close()

	accountsMap := make(map[string]domain.Account)
	for rows.Next() {
		modelAcc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row during batch fetch: %w", err)
		}
		accountsMap[modelAcc.AccountID] = mapping.ToDomainAccount(modelAcc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows during batch fetch: %w", err)
	}

	// Not all requested IDs are necessarily present; the caller decides
	// whether a missing account is an error.
	return accountsMap, nil
}

// UpdateAccountStatus transitions an account's status.
func (r *PgxAccountRepository) UpdateAccountStatus(ctx context.Context, accountID string, status domain.AccountStatus, now time.Time) error {
	query := `
		UPDATE accounts
		SET status = $2, last_updated_at = $3
		WHERE account_id = $1;
	`

	cmdTag, err := r.pool.Exec(ctx, query, accountID, string(status), now)
	if err != nil {
		return fmt.Errorf("failed to update status for account %s: %w", accountID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// FindAccountsByIDsForUpdate retrieves multiple accounts by IDs and locks the rows for update.
// Must be called within a transaction.
func (r *PgxAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	// ORDER BY keeps row-lock acquisition in the same global order as the
	// in-process lock manager, so the two layers cannot deadlock each other.
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = ANY($1) ORDER BY account_id FOR UPDATE;`

	rows, err := tx.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by IDs for update: %w", err)
	}
	defer rows.Close()

	accountsMap := make(map[string]domain.Account)
	for rows.Next() {
		modelAcc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked account row: %w", err)
		}
		accountsMap[modelAcc.AccountID] = mapping.ToDomainAccount(modelAcc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked account rows: %w", err)
	}

	// Check if all requested accounts were found and locked
	if len(accountsMap) != len(accountIDs) {
		missing := []string{}
		for _, id := range accountIDs {
			if _, found := accountsMap[id]; !found {
				missing = append(missing, id)
			}
		}
		slog.WarnContext(ctx, "Some accounts requested for update lock were not found", "missing_accounts", missing)
		return nil, fmt.Errorf("%w: could not find or lock all requested accounts, missing: %v", apperrors.ErrNotFound, missing)
	}

	return accountsMap, nil
}

// ApplyBalanceDeltasInTx applies signed balance deltas within a transaction,
// bumping each row's version. The version predicate is the second line of
// defense behind the engine's lock discipline: a row whose version moved
// since it was read is rejected, never silently overwritten.
func (r *PgxAccountRepository) ApplyBalanceDeltasInTx(ctx context.Context, tx pgx.Tx, deltas map[string]decimal.Decimal, expectedVersions map[string]int64, now time.Time) error {
	if len(deltas) == 0 {
		return nil // Nothing to update
	}

	query := `
		UPDATE accounts
		SET balance = balance + $2, version = version + 1, last_updated_at = $3
		WHERE account_id = $1 AND version = $4;
	`

	batch := &pgx.Batch{}
	accountIDs := make([]string, 0, len(deltas))
	for accountID, delta := range deltas {
		if delta.IsZero() {
			continue
		}
		expected, ok := expectedVersions[accountID]
		if !ok {
			return fmt.Errorf("no expected version for account %s", accountID)
		}
		batch.Queue(query, accountID, delta, now, expected)
		accountIDs = append(accountIDs, accountID)
	}

	if batch.Len() == 0 {
		return nil // No non-zero changes
	}

	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		ct, err := br.Exec()
		if err != nil {
			if batchErr == nil {
				batchErr = fmt.Errorf("failed to update balance for account %s: %w", accountIDs[i], err)
			}
		} else if ct.RowsAffected() == 0 {
			// Row exists but the version predicate failed (or the row is
			// gone). Under the engine's locks this means a stale version.
			if batchErr == nil {
				batchErr = fmt.Errorf("%w: account %s changed since it was read", apperrors.ErrVersionConflict, accountIDs[i])
			}
		}
	}

	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close balance update batch: %w", err)
	}

	return batchErr
}
