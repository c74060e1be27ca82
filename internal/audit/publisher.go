package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher stamps events and hands them to a sink. The sink is usually an
// Inbox so ledger operations never wait on audit I/O.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Emit records one event. A nil Publisher drops events, which lets callers
// skip nil checks when auditing is not wired.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if p == nil {
		return nil
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return p.store.Append(ctx, event)
}

// Inbox is a channel-backed sink. Append never blocks: when the buffer is
// full the event is dropped and counted against the log, trading audit
// completeness for ledger availability.
type Inbox struct {
	ch     chan Event
	logger *slog.Logger
}

func NewInbox(size int, logger *slog.Logger) *Inbox {
	return &Inbox{ch: make(chan Event, size), logger: logger}
}

func (i *Inbox) Append(_ context.Context, event Event) error {
	select {
	case i.ch <- event:
	default:
		i.logger.Warn("audit inbox full, dropping event",
			"action", event.Action,
			"actor", event.Actor,
		)
	}
	return nil
}

// Events exposes the receive side for the worker.
func (i *Inbox) Events() <-chan Event {
	return i.ch
}
