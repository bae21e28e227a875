package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorker_PersistsRecordedEvents(t *testing.T) {
	store := NewInMemoryStore()
	worker := NewWorker(store, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	worker.Record(ctx, Event{ID: "e1", Action: ActionGrant, RecordID: 1})
	worker.Record(ctx, Event{ID: "e2", Action: ActionRevoke, RecordID: 1})

	require.Eventually(t, func() bool {
		events, err := store.ListRecent(context.Background(), 10)
		return err == nil && len(events) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done

	events, err := store.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	// Newest first.
	assert.Equal(t, "e2", events[0].ID)
	assert.Equal(t, "e1", events[1].ID)
}

func TestWorker_FlushesInboxOnShutdown(t *testing.T) {
	store := NewInMemoryStore()
	worker := NewWorker(store, nil, discardLogger())

	// Queue without a running worker, then run with an already-cancelled
	// context: Run must flush before returning.
	worker.Record(context.Background(), Event{ID: "queued", Action: ActionRenew, RecordID: 7})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = worker.Run(ctx)

	events, err := store.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "queued", events[0].ID)
}

func TestInMemoryStore_CapsEvents(t *testing.T) {
	store := NewInMemoryStore()
	store.cap = 3
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(context.Background(), Event{RecordID: int64(i)}))
	}
	events, err := store.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, int64(4), events[0].RecordID)
	assert.Equal(t, int64(2), events[2].RecordID)
}
