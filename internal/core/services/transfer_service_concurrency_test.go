package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nexabank/nexabank_ledger/internal/apperrors"
	"github.com/nexabank/nexabank_ledger/internal/core/domain"
	portssvc "github.com/nexabank/nexabank_ledger/internal/core/ports/services"
	"github.com/nexabank/nexabank_ledger/internal/core/services"
	"github.com/nexabank/nexabank_ledger/internal/utils/locking"
)

// fakeLedgerStore is an in-memory stand-in for the durable layer. It applies
// the same checks the real storage does (request-key uniqueness, version
// match, non-negative balances) under one mutex, so the tests below exercise
// the service's locking and sequencing against honest storage semantics.
type fakeLedgerStore struct {
	mu        sync.Mutex
	accounts  map[string]domain.Account
	transfers map[string]domain.Transfer
	usedKeys  map[string]struct{}
	applied   int
	failOnce  error // next ApplyTransfer returns this, then clears
}

func newFakeLedgerStore(accounts ...domain.Account) *fakeLedgerStore {
	store := &fakeLedgerStore{
		accounts:  make(map[string]domain.Account),
		transfers: make(map[string]domain.Transfer),
		usedKeys:  make(map[string]struct{}),
	}
	for _, account := range accounts {
		store.accounts[account.AccountID] = account
	}
	return store
}

func (f *fakeLedgerStore) FindAccountByID(_ context.Context, accountID string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return &account, nil
}

func (f *fakeLedgerStore) FindAccountsByIDs(_ context.Context, accountIDs []string) (map[string]domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	found := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if account, ok := f.accounts[id]; ok {
			found[id] = account
		}
	}
	return found, nil
}

func (f *fakeLedgerStore) ApplyTransfer(_ context.Context, transfer domain.Transfer, _ []domain.LedgerEntry, deltas map[string]decimal.Decimal, expectedVersions map[string]int64, _ domain.TransferEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failOnce != nil {
		err := f.failOnce
		f.failOnce = nil
		return err
	}
	if _, dup := f.usedKeys[transfer.RequestKey]; dup {
		return fmt.Errorf("%w: request key %s", apperrors.ErrDuplicate, transfer.RequestKey)
	}
	for id, expected := range expectedVersions {
		if f.accounts[id].Version != expected {
			return fmt.Errorf("%w: account %s", apperrors.ErrVersionConflict, id)
		}
	}
	for id, delta := range deltas {
		if f.accounts[id].Balance.Add(delta).IsNegative() {
			return fmt.Errorf("%w: account %s", apperrors.ErrInsufficientBalance, id)
		}
	}

	for id, delta := range deltas {
		account := f.accounts[id]
		account.Balance = account.Balance.Add(delta)
		account.Version++
		f.accounts[id] = account
	}
	f.usedKeys[transfer.RequestKey] = struct{}{}
	f.transfers[transfer.TransferID] = transfer
	f.applied++
	return nil
}

func (f *fakeLedgerStore) FindTransferByID(_ context.Context, transferID string) (*domain.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	transfer, ok := f.transfers[transferID]
	if !ok {
		return nil, fmt.Errorf("%w: transfer %s", apperrors.ErrNotFound, transferID)
	}
	return &transfer, nil
}

func (f *fakeLedgerStore) balance(accountID string) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[accountID].Balance
}

func (f *fakeLedgerStore) appliedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applied
}

// fakeIdempotencyStore mirrors the registry's claim semantics in memory.
type fakeIdempotencyStore struct {
	mu      sync.Mutex
	records map[string]*domain.IdempotencyRecord
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{records: make(map[string]*domain.IdempotencyRecord)}
}

func (f *fakeIdempotencyStore) TryBegin(_ context.Context, requestKey string, now time.Time) (domain.BeginOutcome, *domain.IdempotencyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.records[requestKey]
	if !ok {
		f.records[requestKey] = &domain.IdempotencyRecord{
			RequestKey: requestKey,
			Status:     domain.IdempotencyPending,
			CreatedAt:  now,
		}
		return domain.BeginStarted, nil, nil
	}

	snapshot := *record
	switch record.Status {
	case domain.IdempotencyCompleted:
		return domain.BeginAlreadyCompleted, &snapshot, nil
	case domain.IdempotencyFailed:
		return domain.BeginAlreadyFailed, &snapshot, nil
	default:
		return domain.BeginAlreadyPending, &snapshot, nil
	}
}

func (f *fakeIdempotencyStore) Resolve(_ context.Context, requestKey string, status domain.IdempotencyStatus, result *domain.TransferResult, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.records[requestKey]
	if !ok || record.Status != domain.IdempotencyPending {
		return fmt.Errorf("%w: request key %s is not pending", apperrors.ErrNotFound, requestKey)
	}
	record.Status = status
	record.Result = result
	record.ResolvedAt = &now
	return nil
}

func (f *fakeIdempotencyStore) Reopen(_ context.Context, requestKey string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.records[requestKey]
	if !ok || record.Status != domain.IdempotencyFailed {
		return false, nil
	}
	record.Status = domain.IdempotencyPending
	record.Result = nil
	record.ResolvedAt = nil
	record.CreatedAt = now
	return true, nil
}

func (f *fakeIdempotencyStore) PurgeExpired(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var removed int64
	for key, record := range f.records {
		resolvedBefore := record.ResolvedAt != nil && record.ResolvedAt.Before(cutoff)
		staleBefore := record.ResolvedAt == nil && record.CreatedAt.Before(cutoff)
		if resolvedBefore || staleBefore {
			delete(f.records, key)
			removed++
		}
	}
	return removed, nil
}

func newConcurrencyService(store *fakeLedgerStore) portssvc.TransferSvcFacade {
	return services.NewTransferService(
		store,
		store,
		newFakeIdempotencyStore(),
		locking.NewAccountLockManager(),
		"INR",
		5*time.Second,
	)
}

// A resubmission under the same key replays the original outcome and never
// moves money twice.
func TestSubmitThenResubmit_ReplaysWithoutReapplying(t *testing.T) {
	store := newFakeLedgerStore(
		activeAccount("acc-A", 10000, 1),
		activeAccount("acc-B", 500, 1),
	)
	service := newConcurrencyService(store)

	req := domain.TransferRequest{
		RequestKey:      "k1",
		Kind:            domain.P2PTransfer,
		Amount:          decimal.NewFromInt(4000),
		SourceAccountID: "acc-A",
		DestAccountID:   "acc-B",
	}

	first, err := service.Submit(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, domain.ResultAccepted, first.Status)
	require.True(t, first.NewBalance.Equal(decimal.NewFromInt(6000)))
	require.True(t, store.balance("acc-A").Equal(decimal.NewFromInt(6000)))
	require.True(t, store.balance("acc-B").Equal(decimal.NewFromInt(4500)))

	second, err := service.Submit(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, first.TransferID, second.TransferID)
	require.True(t, second.NewBalance.Equal(decimal.NewFromInt(6000)))

	require.Equal(t, 1, store.appliedCount())
	require.True(t, store.balance("acc-A").Equal(decimal.NewFromInt(6000)), "no second debit on replay")
}

// A storage failure must not poison the request key: the retry reopens the
// failed record and runs the transfer again against the recovered store.
func TestStorageFailureThenRetry_SameKeySucceeds(t *testing.T) {
	store := newFakeLedgerStore(
		activeAccount("acc-A", 1000, 1),
		activeAccount("acc-B", 0, 1),
	)
	store.failOnce = fmt.Errorf("%w: connection reset", apperrors.ErrStorage)
	service := newConcurrencyService(store)

	req := domain.TransferRequest{
		RequestKey:      "k-flaky",
		Kind:            domain.P2PTransfer,
		Amount:          decimal.NewFromInt(250),
		SourceAccountID: "acc-A",
		DestAccountID:   "acc-B",
	}

	first, err := service.Submit(context.Background(), req)
	require.Error(t, err)
	require.ErrorIs(t, err, apperrors.ErrStorage)
	require.Equal(t, domain.ResultRejected, first.Status)
	require.Equal(t, "STORAGE_FAILURE", first.ErrorKind)
	require.Equal(t, 0, store.appliedCount())

	second, err := service.Submit(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, domain.ResultAccepted, second.Status)
	require.Equal(t, 1, store.appliedCount(), "retry applies the effect exactly once")
	require.True(t, store.balance("acc-A").Equal(decimal.NewFromInt(750)))
	require.True(t, store.balance("acc-B").Equal(decimal.NewFromInt(250)))
}

// A rejected withdrawal leaves no trace in the store and replays its
// rejection on resubmit.
func TestRejectedWithdrawal_LeavesBalanceUntouched(t *testing.T) {
	store := newFakeLedgerStore(activeAccount("acc-A", 100, 1))
	service := newConcurrencyService(store)

	req := domain.TransferRequest{
		RequestKey:      "k2",
		Kind:            domain.Withdrawal,
		Amount:          decimal.NewFromInt(500),
		SourceAccountID: "acc-A",
	}

	for i := 0; i < 2; i++ {
		result, err := service.Submit(context.Background(), req)
		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
		require.Equal(t, domain.ResultRejected, result.Status)
	}

	require.Equal(t, 0, store.appliedCount())
	require.True(t, store.balance("acc-A").Equal(decimal.NewFromInt(100)))
}

// Two simultaneous transfers in opposite directions serialize to the same
// net state either way, with no deadlock.
func TestSimultaneousOppositeTransfers_SerializeCleanly(t *testing.T) {
	store := newFakeLedgerStore(
		activeAccount("acc-A", 5000, 1),
		activeAccount("acc-B", 5000, 1),
	)
	service := newConcurrencyService(store)

	var wg sync.WaitGroup
	wg.Add(2)
	var errAB, errBA error
	go func() {
		defer wg.Done()
		_, errAB = service.Submit(context.Background(), domain.TransferRequest{
			RequestKey:      "ab",
			Kind:            domain.P2PTransfer,
			Amount:          decimal.NewFromInt(2000),
			SourceAccountID: "acc-A",
			DestAccountID:   "acc-B",
		})
	}()
	go func() {
		defer wg.Done()
		_, errBA = service.Submit(context.Background(), domain.TransferRequest{
			RequestKey:      "ba",
			Kind:            domain.P2PTransfer,
			Amount:          decimal.NewFromInt(1000),
			SourceAccountID: "acc-B",
			DestAccountID:   "acc-A",
		})
	}()
	wg.Wait()

	require.NoError(t, errAB)
	require.NoError(t, errBA)
	require.True(t, store.balance("acc-A").Equal(decimal.NewFromInt(4000)))
	require.True(t, store.balance("acc-B").Equal(decimal.NewFromInt(6000)))
}

// Opposite-direction transfers between the same pair must all apply without
// deadlock, and money must only move, never appear or vanish.
func TestConcurrentOppositeTransfers_ConserveTotal(t *testing.T) {
	store := newFakeLedgerStore(
		activeAccount("acc-A", 10000, 1),
		activeAccount("acc-B", 10000, 1),
	)
	service := newConcurrencyService(store)

	const pairs = 25
	amount := decimal.NewFromInt(10)

	var wg sync.WaitGroup
	errs := make(chan error, pairs*2)
	for i := 0; i < pairs; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := service.Submit(context.Background(), domain.TransferRequest{
				RequestKey:      fmt.Sprintf("fwd-%d", i),
				Kind:            domain.P2PTransfer,
				Amount:          amount,
				SourceAccountID: "acc-A",
				DestAccountID:   "acc-B",
			})
			errs <- err
		}(i)
		go func(i int) {
			defer wg.Done()
			_, err := service.Submit(context.Background(), domain.TransferRequest{
				RequestKey:      fmt.Sprintf("rev-%d", i),
				Kind:            domain.P2PTransfer,
				Amount:          amount,
				SourceAccountID: "acc-B",
				DestAccountID:   "acc-A",
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, pairs*2, store.appliedCount())

	total := store.balance("acc-A").Add(store.balance("acc-B"))
	require.True(t, total.Equal(decimal.NewFromInt(20000)), "total moved from 20000 to %s", total)
}

// Concurrent submissions under one request key must apply the effect exactly
// once: one caller wins, the rest observe a replay or an in-flight conflict.
func TestConcurrentSameKey_AppliesOnce(t *testing.T) {
	store := newFakeLedgerStore(activeAccount("acc-A", 1000, 1))
	service := newConcurrencyService(store)

	const callers = 16
	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Submit(context.Background(), domain.TransferRequest{
				RequestKey:      "shared-key",
				Kind:            domain.Withdrawal,
				Amount:          decimal.NewFromInt(50),
				SourceAccountID: "acc-A",
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var accepted, conflicted int
	for err := range results {
		switch {
		case err == nil:
			accepted++
		default:
			require.ErrorIs(t, err, apperrors.ErrConflict)
			conflicted++
		}
	}

	require.GreaterOrEqual(t, accepted, 1, "the winner and any post-completion retries succeed")
	require.Equal(t, callers, accepted+conflicted)
	require.Equal(t, 1, store.appliedCount(), "effect applied exactly once")
	require.True(t, store.balance("acc-A").Equal(decimal.NewFromInt(950)))
}

// Competing withdrawals may not drive a balance below zero: only as many may
// succeed as the opening balance can fund.
func TestConcurrentWithdrawals_NeverOverdraw(t *testing.T) {
	store := newFakeLedgerStore(activeAccount("acc-A", 100, 1))
	service := newConcurrencyService(store)

	const callers = 20
	amount := decimal.NewFromInt(30)

	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := service.Submit(context.Background(), domain.TransferRequest{
				RequestKey:      fmt.Sprintf("wd-%d", i),
				Kind:            domain.Withdrawal,
				Amount:          amount,
				SourceAccountID: "acc-A",
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var accepted int
	for err := range results {
		if err == nil {
			accepted++
		} else {
			require.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
		}
	}

	require.Equal(t, 3, accepted, "100 funds exactly three withdrawals of 30")
	final := store.balance("acc-A")
	require.False(t, final.IsNegative())
	require.True(t, final.Equal(decimal.NewFromInt(10)))
}
