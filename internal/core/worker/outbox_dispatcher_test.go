package worker_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nexabank/nexabank_ledger/internal/core/domain"
	"github.com/nexabank/nexabank_ledger/internal/core/worker"
)

// fakeOutbox feeds the dispatcher a queue of events and records every state
// transition it is asked to make.
type fakeOutbox struct {
	mu      sync.Mutex
	queue   []*domain.PendingNotification
	sent    []string
	retried []string
	failed  []string
	nextRun map[string]time.Time
}

func newFakeOutbox(events ...*domain.PendingNotification) *fakeOutbox {
	return &fakeOutbox{queue: events, nextRun: make(map[string]time.Time)}
}

func (f *fakeOutbox) LockNextPending(_ context.Context) (*domain.PendingNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return nil, nil
	}
	event := f.queue[0]
	f.queue = f.queue[1:]
	return event, nil
}

func (f *fakeOutbox) MarkSent(_ context.Context, eventID string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, eventID)
	return nil
}

func (f *fakeOutbox) MarkRetry(_ context.Context, eventID string, _ int, nextRunAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retried = append(f.retried, eventID)
	f.nextRun[eventID] = nextRunAt
	return nil
}

func (f *fakeOutbox) MarkFailed(_ context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, eventID)
	return nil
}

// fakeSender records delivered payloads and can be told to fail.
type fakeSender struct {
	mu        sync.Mutex
	delivered [][]byte
	err       error
}

func (f *fakeSender) Send(_ context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.delivered = append(f.delivered, payload)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runDispatcher(t *testing.T, outbox *fakeOutbox, sender *fakeSender, maxAttempts int) {
	t.Helper()
	dispatcher := worker.NewOutboxDispatcher(outbox, sender, discardLogger(), 5*time.Millisecond, time.Minute, maxAttempts)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	dispatcher.Run(ctx)
}

func TestOutboxDispatcher_DeliversAndMarksSent(t *testing.T) {
	outbox := newFakeOutbox(&domain.PendingNotification{EventID: "ev-1", Payload: []byte(`{"kind":"DEPOSIT"}`)})
	sender := &fakeSender{}

	runDispatcher(t, outbox, sender, 3)

	require.Equal(t, [][]byte{[]byte(`{"kind":"DEPOSIT"}`)}, sender.delivered)
	require.Equal(t, []string{"ev-1"}, outbox.sent)
	require.Empty(t, outbox.retried)
	require.Empty(t, outbox.failed)
}

func TestOutboxDispatcher_DrainsBurstInOneTick(t *testing.T) {
	events := []*domain.PendingNotification{
		{EventID: "ev-1", Payload: []byte("a")},
		{EventID: "ev-2", Payload: []byte("b")},
		{EventID: "ev-3", Payload: []byte("c")},
	}
	outbox := newFakeOutbox(events...)
	sender := &fakeSender{}

	runDispatcher(t, outbox, sender, 3)

	require.Equal(t, []string{"ev-1", "ev-2", "ev-3"}, outbox.sent)
}

func TestOutboxDispatcher_SchedulesRetryWithBackoff(t *testing.T) {
	outbox := newFakeOutbox(&domain.PendingNotification{EventID: "ev-1", Payload: []byte("x"), Attempts: 0})
	sender := &fakeSender{err: errors.New("endpoint down")}

	before := time.Now().UTC()
	runDispatcher(t, outbox, sender, 3)

	require.Empty(t, outbox.sent)
	require.Equal(t, []string{"ev-1"}, outbox.retried)
	require.Empty(t, outbox.failed)

	// First failure backs off one unit from now.
	nextRun := outbox.nextRun["ev-1"]
	require.True(t, nextRun.After(before.Add(50*time.Second)), "next run %s too early", nextRun)
}

func TestOutboxDispatcher_GivesUpAfterMaxAttempts(t *testing.T) {
	outbox := newFakeOutbox(&domain.PendingNotification{EventID: "ev-1", Payload: []byte("x"), Attempts: 2})
	sender := &fakeSender{err: errors.New("endpoint down")}

	runDispatcher(t, outbox, sender, 3)

	require.Empty(t, outbox.sent)
	require.Empty(t, outbox.retried)
	require.Equal(t, []string{"ev-1"}, outbox.failed)
}
