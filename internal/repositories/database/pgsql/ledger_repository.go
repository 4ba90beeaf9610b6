package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexabank/nexabank_ledger/internal/core/domain"
	portsrepo "github.com/nexabank/nexabank_ledger/internal/core/ports/repositories"
	"github.com/nexabank/nexabank_ledger/internal/models"
	"github.com/nexabank/nexabank_ledger/internal/utils/mapping"
	"github.com/nexabank/nexabank_ledger/internal/utils/pagination"
)

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new read-side repository over the ledger.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerReader {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxLedgerRepository implements portsrepo.LedgerReader
var _ portsrepo.LedgerReader = (*PgxLedgerRepository)(nil)

const ledgerEntryColumns = `entry_id, transfer_id, account_id, direction, amount, balance_after, kind, currency_code, created_at`

func scanLedgerEntries(ctx context.Context, r *PgxLedgerRepository, query string, args ...any) ([]models.LedgerEntry, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var m models.LedgerEntry
		if err := rows.Scan(
			&m.EntryID,
			&m.TransferID,
			&m.AccountID,
			&m.Direction,
			&m.Amount,
			&m.BalanceAfter,
			&m.Kind,
			&m.CurrencyCode,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning ledger entry: %w", err)
		}
		entries = append(entries, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}
	return entries, nil
}

// FindEntriesByTransferID retrieves every leg written for one transfer.
func (r *PgxLedgerRepository) FindEntriesByTransferID(ctx context.Context, transferID string) ([]domain.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerEntryColumns + `
		FROM ledger_entries
		WHERE transfer_id = $1
		ORDER BY direction ASC, entry_id ASC;
	`
	modelEntries, err := scanLedgerEntries(ctx, r, query, transferID)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainLedgerEntrySlice(modelEntries), nil
}

// ListEntriesByAccountID retrieves a page of an account's ledger history,
// newest first. The page boundary is the (created_at, entry_id) pair encoded
// in the token, so entries sharing a timestamp never repeat across pages.
func (r *PgxLedgerRepository) ListEntriesByAccountID(ctx context.Context, accountID string, kind *domain.TransferKind, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	args := []any{accountID}
	query := `
		SELECT ` + ledgerEntryColumns + `
		FROM ledger_entries
		WHERE account_id = $1
	`

	if kind != nil {
		args = append(args, string(*kind))
		query += fmt.Sprintf(" AND kind = $%d", len(args))
	}

	if nextToken != nil && *nextToken != "" {
		cursorTime, cursorID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid pagination token: %w", err)
		}
		args = append(args, cursorTime, cursorID)
		query += fmt.Sprintf(" AND (created_at, entry_id) < ($%d, $%d)", len(args)-1, len(args))
	}

	// Fetch one extra row to know whether another page exists.
	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY created_at DESC, entry_id DESC LIMIT $%d;", len(args))

	modelEntries, err := scanLedgerEntries(ctx, r, query, args...)
	if err != nil {
		return nil, nil, err
	}

	var newToken *string
	if len(modelEntries) > limit {
		modelEntries = modelEntries[:limit]
		last := modelEntries[len(modelEntries)-1]
		token := pagination.EncodeToken(last.CreatedAt, last.EntryID)
		newToken = &token
	}

	return mapping.ToDomainLedgerEntrySlice(modelEntries), newToken, nil
}

// SummarizeByKind aggregates an account's debit and credit totals per transfer
// kind over [from, to).
func (r *PgxLedgerRepository) SummarizeByKind(ctx context.Context, accountID string, from, to time.Time) ([]domain.KindTotals, error) {
	query := `
		SELECT
			kind,
			SUM(CASE WHEN direction = 'DEBIT' THEN amount ELSE 0 END) AS total_debit,
			SUM(CASE WHEN direction = 'CREDIT' THEN amount ELSE 0 END) AS total_credit,
			COUNT(*) AS entry_count
		FROM ledger_entries
		WHERE account_id = $1
			AND created_at >= $2
			AND created_at < $3
		GROUP BY kind
		ORDER BY kind;
	`

	rows, err := r.Pool.Query(ctx, query, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying ledger summary: %w", err)
	}
	defer rows.Close()

	var result []domain.KindTotals
	for rows.Next() {
		var row domain.KindTotals
		var kind string
		if err := rows.Scan(&kind, &row.DebitTotal, &row.CreditTotal, &row.EntryCount); err != nil {
			return nil, fmt.Errorf("error scanning ledger summary row: %w", err)
		}
		row.Kind = domain.TransferKind(kind)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger summary rows: %w", err)
	}

	if len(result) == 0 {
		// Return empty slice instead of nil
		return []domain.KindTotals{}, nil
	}

	return result, nil
}
