package events

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"orderapi/internal/logger"
	"orderapi/pkg/rabbitmq"
)

type amqpClient interface {
	Publish(ctx context.Context, messageID, messageType string, body []byte) error
	Consume(handler func(msg amqp.Delivery) error) error
	Close() error
}

// RabbitMQPublisher publishes events as JSON messages on a durable queue.
type RabbitMQPublisher struct {
	client amqpClient
}

// NewRabbitMQPublisher wraps a connected client.
func NewRabbitMQPublisher(client *rabbitmq.Client) *RabbitMQPublisher {
	return &RabbitMQPublisher{client: client}
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.client.Publish(ctx, event.ID, string(event.Type), body)
}

// StartAuditConsumer logs every event read back from the queue.
func (p *RabbitMQPublisher) StartAuditConsumer() error {
	audit := logger.Component("order-audit")
	return p.client.Consume(func(msg amqp.Delivery) error {
		var event Event
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return fmt.Errorf("failed to decode event: %w", err)
		}
		audit.WithFields(log.Fields{
			"event_id": event.ID,
			"type":     event.Type,
			"order_id": event.OrderID,
		}).Info("order event received")
		return nil
	})
}

func (p *RabbitMQPublisher) Close() error {
	return p.client.Close()
}
