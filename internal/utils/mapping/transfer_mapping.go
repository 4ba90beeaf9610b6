package mapping

import (
	"github.com/nexabank/nexabank_ledger/internal/core/domain"
	"github.com/nexabank/nexabank_ledger/internal/models"
)

// ToModelTransfer converts a domain Transfer to its database model.
// Empty account references become NULLs rather than empty strings.
func ToModelTransfer(d domain.Transfer) models.Transfer {
	m := models.Transfer{
		TransferID:   d.TransferID,
		RequestKey:   d.RequestKey,
		Kind:         string(d.Kind),
		Amount:       d.Amount,
		CurrencyCode: d.CurrencyCode,
		Metadata:     d.Metadata,
		CreatedAt:    d.CreatedAt,
	}
	if d.SourceAccountID != "" {
		src := d.SourceAccountID
		m.SourceAccountID = &src
	}
	if d.DestAccountID != "" {
		dst := d.DestAccountID
		m.DestAccountID = &dst
	}
	return m
}

// ToDomainTransfer converts a database model Transfer to its domain form.
func ToDomainTransfer(m models.Transfer) domain.Transfer {
	d := domain.Transfer{
		TransferID:   m.TransferID,
		RequestKey:   m.RequestKey,
		Kind:         domain.TransferKind(m.Kind),
		Amount:       m.Amount,
		CurrencyCode: m.CurrencyCode,
		Metadata:     m.Metadata,
		CreatedAt:    m.CreatedAt,
	}
	if m.SourceAccountID != nil {
		d.SourceAccountID = *m.SourceAccountID
	}
	if m.DestAccountID != nil {
		d.DestAccountID = *m.DestAccountID
	}
	return d
}
