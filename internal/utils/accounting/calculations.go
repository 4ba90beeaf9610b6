package accounting

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nexabank/nexabank_ledger/internal/core/domain"
)

// ValidateEntryBalance checks that a transfer's ledger legs are internally
// consistent before they are persisted: every amount is positive, and when a
// transfer carries both a debit and a credit leg the two sides cancel out.
// Single-leg movements (pure deposits and withdrawals) are exempt from the
// cancellation rule; their counterparty is the outside world.
func ValidateEntryBalance(entries []domain.LedgerEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("transfer must produce at least one ledger entry")
	}

	zero := decimal.NewFromInt(0)
	sum := zero
	for _, entry := range entries {
		if entry.Amount.LessThanOrEqual(zero) {
			return fmt.Errorf("entry amount must be positive for entry ID %s", entry.EntryID)
		}
		sum = sum.Add(entry.SignedAmount())
	}

	if len(entries) > 1 && !sum.Equal(zero) {
		return fmt.Errorf("ledger entries do not balance to zero: sum is %s", sum.String())
	}
	return nil
}

// SumDeltas totals the signed effect of a set of entries per account. The
// result is what the storage layer applies to balances, so a mismatch between
// balances and ledger legs is impossible by construction.
func SumDeltas(entries []domain.LedgerEntry) map[string]decimal.Decimal {
	deltas := make(map[string]decimal.Decimal, len(entries))
	for _, entry := range entries {
		deltas[entry.AccountID] = deltas[entry.AccountID].Add(entry.SignedAmount())
	}
	return deltas
}
