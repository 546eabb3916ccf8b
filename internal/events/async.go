package events

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"orderapi/internal/logger"
)

// DefaultQueueSize bounds the events waiting for delivery.
const DefaultQueueSize = 256

// ErrQueueFull is returned when the event was dropped because the queue is full.
var ErrQueueFull = errors.New("event queue is full")

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("event publisher is closed")

type queuedEvent struct {
	ctx   context.Context
	event Event
}

// AsyncPublisher hands events to a single background worker so a slow or
// unreachable broker never holds up the caller. Delivery failures are logged.
type AsyncPublisher struct {
	next   Publisher
	queue  chan queuedEvent
	logger *log.Entry

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsyncPublisher starts the worker. size <= 0 uses DefaultQueueSize.
func NewAsyncPublisher(next Publisher, size int) *AsyncPublisher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	p := &AsyncPublisher{
		next:   next,
		queue:  make(chan queuedEvent, size),
		logger: logger.Component("event-publisher"),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

// Publish enqueues event without blocking. The request context is detached
// so delivery outlives the HTTP response.
func (p *AsyncPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events, delivers what is already queued and closes
// the wrapped publisher.
func (p *AsyncPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	return p.next.Close()
}

func (p *AsyncPublisher) run() {
	defer p.wg.Done()

	for item := range p.queue {
		if err := p.next.Publish(item.ctx, item.event); err != nil {
			p.logger.WithError(err).WithFields(log.Fields{
				"event_id": item.event.ID,
				"type":     item.event.Type,
				"order_id": item.event.OrderID,
			}).Warn("failed to deliver order event")
		}
	}
}
