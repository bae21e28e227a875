package audit

import (
	"context"
	"log/slog"
)

// Recorder accepts events from domain code without blocking it.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// Worker consumes audit events from a buffered channel and persists them,
// optionally mirroring each event to an external publisher. Domain code never
// blocks on the trail: when the inbox is full the event is dropped and logged.
type Worker struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	inbox     chan Event
}

func NewWorker(store Store, publisher Publisher, logger *slog.Logger) *Worker {
	return &Worker{
		store:     store,
		publisher: publisher,
		logger:    logger,
		inbox:     make(chan Event, 256),
	}
}

// Record enqueues an event for background persistence.
func (w *Worker) Record(_ context.Context, event Event) {
	select {
	case w.inbox <- event:
	default:
		w.logger.Warn("audit inbox full, dropping event",
			"action", string(event.Action),
			"record_id", event.RecordID,
		)
	}
}

// Run drains the inbox until ctx is cancelled, then flushes what is left.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.flush()
			return ctx.Err()
		case event := <-w.inbox:
			w.handle(ctx, event)
		}
	}
}

func (w *Worker) handle(ctx context.Context, event Event) {
	if err := w.store.Append(ctx, event); err != nil {
		w.logger.Error("failed to append audit event", "error", err.Error())
	}
	if w.publisher != nil {
		if err := w.publisher.Publish(ctx, event); err != nil {
			w.logger.Error("failed to publish audit event", "error", err.Error())
		}
	}
}

// flush persists events still queued at shutdown. Uses a fresh context since
// the run context is already cancelled.
func (w *Worker) flush() {
	ctx := context.Background()
	for {
		select {
		case event := <-w.inbox:
			w.handle(ctx, event)
		default:
			return
		}
	}
}
