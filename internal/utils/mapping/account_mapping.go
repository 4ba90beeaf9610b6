package mapping

import (
	"github.com/nexabank/nexabank_ledger/internal/core/domain"
	"github.com/nexabank/nexabank_ledger/internal/models"
)

// ToModelAccount converts a domain Account to its database model.
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:     d.AccountID,
		AccountNumber: d.AccountNumber,
		HolderName:    d.HolderName,
		CurrencyCode:  d.CurrencyCode,
		Status:        models.AccountStatus(d.Status),
		Balance:       d.Balance,
		Version:       d.Version,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			LastUpdatedAt: d.LastUpdatedAt,
		},
	}
}

// ToDomainAccount converts a database model Account to its domain form.
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:     m.AccountID,
		AccountNumber: m.AccountNumber,
		HolderName:    m.HolderName,
		CurrencyCode:  m.CurrencyCode,
		Status:        domain.AccountStatus(m.Status),
		Balance:       m.Balance,
		Version:       m.Version,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			LastUpdatedAt: m.LastUpdatedAt,
		},
	}
}
