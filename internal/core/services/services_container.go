package services

import (
	portsrepo "github.com/nexabank/nexabank_ledger/internal/core/ports/repositories"
	portssvc "github.com/nexabank/nexabank_ledger/internal/core/ports/services"
	"github.com/nexabank/nexabank_ledger/internal/platform/config"
	"github.com/nexabank/nexabank_ledger/internal/utils/locking"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// One lock manager instance guards all account mutation in this process.
	lockManager := locking.NewAccountLockManager()

	container.Account = NewAccountService(repos.AccountRepo, cfg.CurrencyCode)
	container.Transfer = NewTransferService(
		repos.TransferRepo,
		repos.AccountRepo,
		repos.IdempotencyRepo,
		lockManager,
		cfg.CurrencyCode,
		cfg.LockTimeout,
	)
	container.Ledger = NewLedgerService(repos.LedgerRepo, repos.AccountRepo)

	return container
}
