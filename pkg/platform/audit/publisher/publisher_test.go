package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	audit "oidcop/pkg/platform/audit"
	"oidcop/pkg/platform/audit/store/memory"
	"oidcop/pkg/platform/middleware/metadata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{
		ClientID: "rp-1",
		Action:   string(audit.EventTokenIssued),
	})
	require.NoError(t, err)

	events, err := store.ListByClient(context.Background(), "rp-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventTokenIssued), events[0].Action)
	assert.Equal(t, audit.CategoryOperations, events[0].Category)
	assert.NotEmpty(t, events[0].ID)
}

func TestPublisher_RequestMetadata(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	ctx := metadata.WithRequest(context.Background(), metadata.Request{
		ID:        "req-7",
		ClientIP:  "203.0.113.9",
		UserAgent: "rp/2.1",
	})
	require.NoError(t, pub.Emit(ctx, audit.Event{ClientID: "rp-1", Action: string(audit.EventAuthCodeReplayed)}))

	events, err := store.ListByClient(context.Background(), "rp-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "req-7", events[0].RequestID)
	assert.Equal(t, "203.0.113.9", events[0].ClientIP)
	assert.Equal(t, "rp/2.1", events[0].UserAgent)
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			ClientID: "rp-1",
			Action:   string(audit.EventAuthCodeIssued),
		})
		require.NoError(t, err)
	}

	pub.Close()

	events, err := store.ListByClient(context.Background(), "rp-1")
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFullDoesNotBlock(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventTokenIssued)})
			if err != nil {
				assert.ErrorIs(t, err, ErrBufferFull)
			}
		}()
	}
	wg.Wait()
}

func TestPublisher_CancelledContextInAsyncMode(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pub.Emit(ctx, audit.Event{Action: string(audit.EventTokenIssued)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublisher_Timestamps(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithClock(func() time.Time { return fixed }))
	defer pub.Close()

	custom := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: "a"}))
	require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: "b", Timestamp: custom}))

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, fixed, events[0].Timestamp)
	assert.Equal(t, custom, events[1].Timestamp)
}

func TestPublisher_SecurityCategory(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		ClientID: "rp-2",
		Action:   string(audit.EventRefreshTokenClientMismatch),
	}))

	events, err := store.ListByClient(context.Background(), "rp-2")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
}
