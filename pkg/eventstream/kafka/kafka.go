// Package kafka publishes run events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/spectralworks/specmatch/pkg/eventstream"
	"github.com/spectralworks/specmatch/pkg/logger"
)

// Config holds connection settings for the Kafka publisher.
type Config struct {
	Brokers []string
	Topic   string
}

// Publisher writes JSON-encoded run events to a Kafka topic. Events are
// keyed by run ID so one run's events stay ordered within a partition.
type Publisher struct {
	writer *kafka.Writer
	log    *slog.Logger
}

// NewPublisher creates a Publisher for the configured topic. The
// connection is established lazily on the first publish.
func NewPublisher(c Config, log *slog.Logger) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if c.Topic == "" {
		return nil, fmt.Errorf("kafka publisher requires a topic")
	}
	if log == nil {
		log = logger.Nop()
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        c.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireAll,
	}
	return &Publisher{
		writer: w,
		log:    log.With("component", "kafka-publisher", "topic", c.Topic),
	}, nil
}

// PublishRun serializes one event and writes it synchronously.
func (p *Publisher) PublishRun(ctx context.Context, event *eventstream.RunEvent) error {
	if event == nil {
		return eventstream.ErrNilRunEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling run event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.RunID),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("failed to publish run event",
			"event_type", event.EventType,
			"run_id", event.RunID,
			"error", err,
		)
		return fmt.Errorf("publishing run event: %w", err)
	}

	p.log.Debug("run event published",
		"event_type", event.EventType,
		"run_id", event.RunID,
	)
	return nil
}

// Close flushes pending events and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
