package events

import (
	"fmt"

	"orderapi/internal/config"
	"orderapi/internal/logger"
	"orderapi/pkg/kafka"
	"orderapi/pkg/rabbitmq"
)

// NewPublisher connects the broker selected by cfg.Driver. Broker publishers
// are wrapped in an AsyncPublisher; the none driver returns a NoopPublisher.
func NewPublisher(cfg config.EventsConfig) (Publisher, error) {
	switch cfg.Driver {
	case "", config.EventsNone:
		return NoopPublisher{}, nil

	case config.EventsRabbitMQ:
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue})
		if err != nil {
			return nil, err
		}
		publisher := NewRabbitMQPublisher(client)
		if cfg.RabbitMQConsume {
			if err := publisher.StartAuditConsumer(); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("failed to start audit consumer: %w", err)
			}
		}
		return NewAsyncPublisher(publisher, DefaultQueueSize), nil

	case config.EventsKafka:
		producer, err := kafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			return nil, err
		}
		logger.Component("events").WithField("topic", cfg.KafkaTopic).Info("publishing order events to kafka")
		return NewAsyncPublisher(NewKafkaPublisher(producer, cfg.KafkaTopic), DefaultQueueSize), nil

	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
}
