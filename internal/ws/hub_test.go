package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHub_PublishQueuesEvent(t *testing.T) {
	hub := NewHub(zap.NewNop())

	err := hub.Publish(context.Background(), event.Event{
		Type:       event.StockMovementRecorded,
		ProductID:  1,
		StockLevel: 28,
	})
	require.NoError(t, err)

	select {
	case msg := <-hub.Broadcast:
		var decoded event.Event
		require.NoError(t, json.Unmarshal(msg, &decoded))
		assert.Equal(t, event.StockMovementRecorded, decoded.Type)
		assert.Equal(t, 28, decoded.StockLevel)
	default:
		t.Fatal("expected a queued broadcast message")
	}
}

func TestHub_PublishDropsWhenFull(t *testing.T) {
	hub := NewHub(zap.NewNop())

	for i := 0; i < broadcastBuffer+10; i++ {
		assert.NoError(t, hub.Publish(context.Background(), event.Event{Type: event.ProductUpdated, ProductID: uint(i)}))
	}
	assert.Len(t, hub.Broadcast, broadcastBuffer)
}

func TestHub_RunStopsOnCancel(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	// Broadcasting with no clients is a no-op
	require.NoError(t, hub.Publish(ctx, event.Event{Type: event.ProductCreated, ProductID: 1}))
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop after cancel")
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_ServeDoesNotBlockAfterStop(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	finished := make(chan struct{})
	go func() {
		hub.unregister(nil)
		assert.False(t, hub.register(nil))
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("register/unregister blocked after Run returned")
	}
}
