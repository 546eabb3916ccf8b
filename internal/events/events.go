package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"orderapi/internal/models"
)

// Type names an order lifecycle event.
type Type string

const (
	OrderCreated Type = "order.created"
	OrderUpdated Type = "order.updated"
	OrderDeleted Type = "order.deleted"
)

// Event is the message published after a successful order mutation.
type Event struct {
	ID         string        `json:"id"`
	Type       Type          `json:"type"`
	OrderID    string        `json:"orderId"`
	Order      *models.Order `json:"order,omitempty"`
	OccurredAt time.Time     `json:"occurredAt"`
}

// NewEvent builds an event with a fresh id. order may be nil for deletions.
func NewEvent(eventType Type, orderID string, order *models.Order) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OrderID:    orderID,
		Order:      order,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers order events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }
