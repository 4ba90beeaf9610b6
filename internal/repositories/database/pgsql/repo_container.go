package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/nexabank/nexabank_ledger/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	transferRepo := newPgxTransferRepository(dbPool, accountRepo)
	ledgerRepo := newPgxLedgerRepository(dbPool)
	idempotencyRepo := newPgxIdempotencyRepository(dbPool)
	outboxRepo := newPgxOutboxRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountRepo:     accountRepo,
		TransferRepo:    transferRepo,
		LedgerRepo:      ledgerRepo,
		IdempotencyRepo: idempotencyRepo,
		OutboxRepo:      outboxRepo,
	}
}
