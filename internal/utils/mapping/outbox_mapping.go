package mapping

import (
	"github.com/nexabank/nexabank_ledger/internal/core/domain"
	"github.com/nexabank/nexabank_ledger/internal/models"
)

// ToPendingNotification converts a claimed outbox row to the dispatcher's view.
func ToPendingNotification(m models.OutboxEvent) domain.PendingNotification {
	return domain.PendingNotification{
		EventID:  m.EventID,
		Payload:  m.Payload,
		Attempts: m.Attempts,
	}
}
