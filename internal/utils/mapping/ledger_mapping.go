package mapping

import (
	"github.com/nexabank/nexabank_ledger/internal/core/domain"
	"github.com/nexabank/nexabank_ledger/internal/models"
)

// ToModelLedgerEntry converts a domain LedgerEntry to its database model.
func ToModelLedgerEntry(d domain.LedgerEntry) models.LedgerEntry {
	return models.LedgerEntry{
		EntryID:      d.EntryID,
		TransferID:   d.TransferID,
		AccountID:    d.AccountID,
		Direction:    string(d.Direction),
		Amount:       d.Amount,
		BalanceAfter: d.BalanceAfter,
		Kind:         string(d.Kind),
		CurrencyCode: d.CurrencyCode,
		CreatedAt:    d.CreatedAt,
	}
}

// ToDomainLedgerEntry converts a database model LedgerEntry to its domain form.
func ToDomainLedgerEntry(m models.LedgerEntry) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:      m.EntryID,
		TransferID:   m.TransferID,
		AccountID:    m.AccountID,
		Direction:    domain.EntryDirection(m.Direction),
		Amount:       m.Amount,
		BalanceAfter: m.BalanceAfter,
		Kind:         domain.TransferKind(m.Kind),
		CurrencyCode: m.CurrencyCode,
		CreatedAt:    m.CreatedAt,
	}
}

// ToDomainLedgerEntrySlice converts a slice of model entries to domain entries.
func ToDomainLedgerEntrySlice(ms []models.LedgerEntry) []domain.LedgerEntry {
	ds := make([]domain.LedgerEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLedgerEntry(m)
	}
	return ds
}
