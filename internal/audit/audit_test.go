package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisherEmit(t *testing.T) {
	ctx := context.Background()

	t.Run("stamps id and timestamp", func(t *testing.T) {
		store := NewInMemoryStore()
		publisher := NewPublisher(store)

		err := publisher.Emit(ctx, Event{Action: ActionCreditsIssued, Actor: "issuer-1"})
		require.NoError(t, err)

		events := store.Events()
		require.Len(t, events, 1)
		assert.NotEqual(t, uuid.Nil, events[0].ID)
		assert.False(t, events[0].Timestamp.IsZero())
		assert.Equal(t, ActionCreditsIssued, events[0].Action)
	})

	t.Run("keeps a caller-supplied id", func(t *testing.T) {
		store := NewInMemoryStore()
		publisher := NewPublisher(store)
		id := uuid.New()

		require.NoError(t, publisher.Emit(ctx, Event{ID: id, Action: ActionCreditsRetired}))
		assert.Equal(t, id, store.Events()[0].ID)
	})

	t.Run("nil publisher drops events", func(t *testing.T) {
		var publisher *Publisher
		assert.NoError(t, publisher.Emit(ctx, Event{Action: ActionProjectRegistered}))
	})
}

func TestInbox(t *testing.T) {
	ctx := context.Background()

	t.Run("buffers events for the worker", func(t *testing.T) {
		inbox := NewInbox(2, discardLogger())
		require.NoError(t, inbox.Append(ctx, Event{Action: ActionCreditsIssued}))

		select {
		case event := <-inbox.Events():
			assert.Equal(t, ActionCreditsIssued, event.Action)
		default:
			t.Fatal("expected a buffered event")
		}
	})

	t.Run("drops instead of blocking when full", func(t *testing.T) {
		inbox := NewInbox(1, discardLogger())
		require.NoError(t, inbox.Append(ctx, Event{Action: ActionCreditsIssued}))

		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = inbox.Append(ctx, Event{Action: ActionCreditsRetired})
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("append blocked on a full inbox")
		}
		assert.Len(t, inbox.Events(), 1)
	})
}

type failingStore struct {
	calls atomic.Int32
}

func (s *failingStore) Append(context.Context, Event) error {
	s.calls.Add(1)
	return errors.New("sink down")
}

func TestWorker(t *testing.T) {
	t.Run("drains the inbox into the sink", func(t *testing.T) {
		store := NewInMemoryStore()
		inbox := NewInbox(8, discardLogger())
		worker := NewWorker(store, inbox.Events(), discardLogger())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- worker.Run(ctx) }()

		for range 3 {
			require.NoError(t, inbox.Append(ctx, Event{Action: ActionCreditsTransferred}))
		}
		assert.Eventually(t, func() bool {
			return len(store.Events()) == 3
		}, time.Second, 10*time.Millisecond)

		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})

	t.Run("keeps running when the sink fails", func(t *testing.T) {
		sink := &failingStore{}
		inbox := NewInbox(8, discardLogger())
		worker := NewWorker(sink, inbox.Events(), discardLogger())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = worker.Run(ctx) }()

		ctx2 := context.Background()
		require.NoError(t, inbox.Append(ctx2, Event{Action: ActionCreditsIssued}))
		require.NoError(t, inbox.Append(ctx2, Event{Action: ActionCreditsRetired}))

		assert.Eventually(t, func() bool {
			return sink.calls.Load() == 2
		}, time.Second, 10*time.Millisecond)
	})
}
