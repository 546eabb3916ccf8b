package events

import (
	"context"
	"encoding/json"
	"fmt"

	"orderapi/pkg/kafka"
)

type kafkaSender interface {
	Send(topic, key string, value []byte, headers map[string]string) error
	Close() error
}

// KafkaPublisher publishes events to a topic keyed by orderId, so every event
// for one order lands on the same partition.
type KafkaPublisher struct {
	producer kafkaSender
	topic    string
}

// NewKafkaPublisher wraps a producer for topic.
func NewKafkaPublisher(producer *kafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.producer.Send(p.topic, event.OrderID, body, map[string]string{
		"event-id":   event.ID,
		"event-type": string(event.Type),
	})
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
