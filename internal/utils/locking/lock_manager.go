package locking

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nexabank/nexabank_ledger/internal/apperrors"
)

// AccountLockManager provides mutual-exclusion scopes keyed by account ID.
// Multiple keys are always acquired in ascending order, so two operations
// that touch the same pair of accounts in opposite roles can never deadlock.
// Lock state lives only in memory: it is reconstructable after a restart
// because no operation is ever left half-applied.
type AccountLockManager struct {
	mu    sync.Mutex
	locks map[string]*accountLock
}

type accountLock struct {
	// ch acts as a mutex that supports context-aware acquisition: the lock is
	// held while the channel (capacity 1) contains a token.
	ch   chan struct{}
	refs int
}

// NewAccountLockManager creates an empty lock manager.
func NewAccountLockManager() *AccountLockManager {
	return &AccountLockManager{
		locks: make(map[string]*accountLock),
	}
}

// Acquire locks every given account ID, in ascending order regardless of the
// caller's ordering, and returns a release function that must be called on
// every exit path. If ctx expires while waiting, any partially acquired
// locks are released and an error matching apperrors.ErrTimeout is returned.
func (m *AccountLockManager) Acquire(ctx context.Context, accountIDs ...string) (func(), error) {
	ids := uniqueSorted(accountIDs)

	acquired := make([]*accountLock, 0, len(ids))
	for _, id := range ids {
		l := m.retain(id)
		select {
		case l.ch <- struct{}{}:
			acquired = append(acquired, l)
		case <-ctx.Done():
			// Undo: the current lock was retained but not acquired.
			m.release(id, l, false)
			for i := len(acquired) - 1; i >= 0; i-- {
				m.release(ids[i], acquired[i], true)
			}
			return nil, fmt.Errorf("%w: waiting for account lock %s: %v", apperrors.ErrTimeout, id, ctx.Err())
		}
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			for i := len(acquired) - 1; i >= 0; i-- {
				m.release(ids[i], acquired[i], true)
			}
		})
	}
	return release, nil
}

// retain returns the lock for id, creating it if needed, and bumps its
// reference count so a concurrent release cannot delete it underneath us.
func (m *AccountLockManager) retain(id string) *accountLock {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &accountLock{ch: make(chan struct{}, 1)}
		m.locks[id] = l
	}
	l.refs++
	return l
}

func (m *AccountLockManager) release(id string, l *accountLock, held bool) {
	if held {
		<-l.ch
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(m.locks, id)
	}
}

// uniqueSorted returns the distinct IDs in ascending order. Sorting here is
// the global lock-ordering policy; callers never choose acquisition order.
func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
