package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := broker.Subscribe(ctx)
	broker.Publish(StartedEvent, "hello")

	select {
	case ev := <-events:
		assert.Equal(t, StartedEvent, ev.Type)
		assert.Equal(t, "hello", ev.Payload)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBrokerAutoUnsubscribe(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	_ = broker.Subscribe(ctx)
	require.Equal(t, 1, broker.SubscriberCount())

	cancel()

	// The cleanup goroutine needs a moment to run.
	deadline := time.Now().Add(time.Second)
	for broker.SubscriberCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 0, broker.SubscriberCount())
}

func TestBrokerNonBlockingPublish(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Shutdown()

	// A subscriber that never drains: publishing past its buffer must not
	// block the publisher.
	_ = broker.Subscribe(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < bufferSize*2; i++ {
			broker.Publish(ProgressEvent, i)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestBrokerShutdownClosesChannels(t *testing.T) {
	broker := NewBroker[string]()
	events := broker.Subscribe(context.Background())

	broker.Shutdown()

	select {
	case _, ok := <-events:
		assert.False(t, ok, "channel should be closed after shutdown")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after shutdown")
	}

	// Publishing and re-subscribing after shutdown are safe no-ops.
	broker.Publish(FinishedEvent, "late")
	ch := broker.Subscribe(context.Background())
	_, ok := <-ch
	assert.False(t, ok)

	broker.Shutdown() // idempotent
}
