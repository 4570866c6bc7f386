package history

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubInserter struct {
	mu       sync.Mutex
	inserted []*ChatMessage
	failures int // number of leading Insert calls that fail
	calls    int
}

func (s *stubInserter) Insert(_ context.Context, msg *ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return errors.New("store unavailable")
	}
	s.inserted = append(s.inserted, msg)
	return nil
}

func (s *stubInserter) insertedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inserted)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorder_PersistRetriesThenSucceeds(t *testing.T) {
	store := &stubInserter{failures: 2}
	r := newRecorder(store, testLogger(), 8)
	r.retryDelay = time.Millisecond

	r.persist(context.Background(), &ChatMessage{ID: "m1", Room: "r1"})

	assert.Equal(t, 3, store.calls)
	assert.Equal(t, 1, store.insertedCount())
}

func TestRecorder_PersistDropsAfterRetries(t *testing.T) {
	store := &stubInserter{failures: 100}
	r := newRecorder(store, testLogger(), 8)
	r.retryDelay = time.Millisecond

	r.persist(context.Background(), &ChatMessage{ID: "m1", Room: "r1"})

	assert.Equal(t, r.maxRetries+1, store.calls)
	assert.Zero(t, store.insertedCount())
}

func TestRecorder_RecordNeverBlocksOnFullQueue(t *testing.T) {
	store := &stubInserter{}
	r := newRecorder(store, testLogger(), 1)

	// No worker running: the first message fills the queue, the second must
	// be dropped instead of blocking the caller.
	done := make(chan struct{})
	go func() {
		r.Record(&ChatMessage{ID: "m1", Room: "r1"})
		r.Record(&ChatMessage{ID: "m2", Room: "r1"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full queue")
	}
	assert.Len(t, r.queue, 1)
}

func TestRecorder_BackgroundWorkerPersists(t *testing.T) {
	store := &stubInserter{}
	r := newRecorder(store, testLogger(), 8)

	r.start()
	r.Record(&ChatMessage{ID: "m1", Room: "r1"})
	r.Record(&ChatMessage{ID: "m2", Room: "r1"})

	require.Eventually(t, func() bool {
		return store.insertedCount() == 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, r.stop())
}

func TestRecorder_StopDrainsQueue(t *testing.T) {
	store := &stubInserter{}
	r := newRecorder(store, testLogger(), 8)

	// Queue messages before the worker ever runs, then start and stop
	// immediately: drain should give them a final write attempt.
	r.Record(&ChatMessage{ID: "m1", Room: "r1"})
	r.start()
	require.NoError(t, r.stop())

	assert.Equal(t, 1, store.insertedCount())
}
