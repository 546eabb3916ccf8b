package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingPublisher holds every Publish until release is closed.
type blockingPublisher struct {
	release chan struct{}
	started chan struct{}

	mu        sync.Mutex
	delivered []Event
	ctxErrs   []error
	closed    bool
}

func newBlockingPublisher() *blockingPublisher {
	return &blockingPublisher{release: make(chan struct{}), started: make(chan struct{}, 16)}
}

func (b *blockingPublisher) Publish(ctx context.Context, event Event) error {
	b.started <- struct{}{}
	<-b.release
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delivered = append(b.delivered, event)
	b.ctxErrs = append(b.ctxErrs, ctx.Err())
	return nil
}

func (b *blockingPublisher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, Event) error {
	f.calls++
	return errors.New("broker unavailable")
}

func (f *failingPublisher) Close() error { return nil }

func TestAsyncPublisher_DoesNotWaitForBroker(t *testing.T) {
	inner := newBlockingPublisher()
	p := NewAsyncPublisher(inner, 4)

	done := make(chan error, 1)
	go func() { done <- p.Publish(context.Background(), NewEvent(OrderCreated, "v1", nil)) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a stalled broker")
	}

	close(inner.release)
	require.NoError(t, p.Close())
	assert.Len(t, inner.delivered, 1)
}

func TestAsyncPublisher_DropsWhenQueueFull(t *testing.T) {
	inner := newBlockingPublisher()
	p := NewAsyncPublisher(inner, 1)

	require.NoError(t, p.Publish(context.Background(), NewEvent(OrderCreated, "v1", nil)))
	<-inner.started // worker holds v1, queue is empty again
	require.NoError(t, p.Publish(context.Background(), NewEvent(OrderCreated, "v2", nil)))

	err := p.Publish(context.Background(), NewEvent(OrderCreated, "v3", nil))
	assert.ErrorIs(t, err, ErrQueueFull)

	close(inner.release)
	require.NoError(t, p.Close())

	require.Len(t, inner.delivered, 2)
	assert.Equal(t, "v1", inner.delivered[0].OrderID)
	assert.Equal(t, "v2", inner.delivered[1].OrderID)
}

func TestAsyncPublisher_CloseDrainsQueue(t *testing.T) {
	inner := newBlockingPublisher()
	close(inner.release)
	p := NewAsyncPublisher(inner, 8)

	for _, id := range []string{"v1", "v2", "v3"} {
		require.NoError(t, p.Publish(context.Background(), NewEvent(OrderUpdated, id, nil)))
	}
	require.NoError(t, p.Close())

	assert.Len(t, inner.delivered, 3)
	assert.True(t, inner.closed)
	assert.ErrorIs(t, p.Publish(context.Background(), NewEvent(OrderUpdated, "v4", nil)), ErrPublisherClosed)
	assert.NoError(t, p.Close())
}

func TestAsyncPublisher_OutlivesRequestContext(t *testing.T) {
	inner := newBlockingPublisher()
	p := NewAsyncPublisher(inner, 4)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Publish(ctx, NewEvent(OrderDeleted, "v1", nil)))
	cancel()

	close(inner.release)
	require.NoError(t, p.Close())

	require.Len(t, inner.ctxErrs, 1)
	assert.NoError(t, inner.ctxErrs[0])
}

func TestAsyncPublisher_DeliveryFailureIsLogged(t *testing.T) {
	inner := &failingPublisher{}
	p := NewAsyncPublisher(inner, 4)

	require.NoError(t, p.Publish(context.Background(), NewEvent(OrderCreated, "v1", nil)))
	require.NoError(t, p.Close())
	assert.Equal(t, 1, inner.calls)
}
