// Package messaging publishes drained domain events to Kafka for the
// downstream audit/notification consumers.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fundedlabs/propcore/internal/domain"
)

// Config holds the Kafka producer settings.
type Config struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	RequiredAcks int           `mapstructure:"required_acks"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
}

// DefaultConfig returns producer settings suited to low-volume,
// must-not-lose domain events: full acks with retries.
func DefaultConfig() Config {
	return Config{
		Brokers:      []string{"localhost:9092"},
		Topic:        "propcore.domain-events",
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
		RequiredAcks: int(kafka.RequireAll),
		MaxAttempts:  5,
	}
}

// envelope is the wire format: event metadata plus the event struct
// itself as payload.
type envelope struct {
	EventID     string          `json:"event_id"`
	EventType   string          `json:"event_type"`
	ChallengeID string          `json:"challenge_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// KafkaPublisher writes domain events to one topic, keyed by aggregate
// so per-account ordering survives partitioning.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher creates a publisher with retrying, fully-acked
// writes.
func NewKafkaPublisher(cfg Config, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		MaxAttempts:  cfg.MaxAttempts,
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

// Publish encodes and writes a drained batch. The whole batch is one
// write so a broker failure never delivers a prefix silently.
func (p *KafkaPublisher) Publish(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal %s event: %w", e.EventType(), err)
		}
		env := envelope{
			EventID:     e.Identity().String(),
			EventType:   string(e.EventType()),
			ChallengeID: e.AggregateID().String(),
			OccurredAt:  e.OccurredAt(),
			Payload:     payload,
		}
		value, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("marshal envelope for %s: %w", e.EventType(), err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.AggregateID().String()),
			Value: value,
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d domain events: %w", len(msgs), err)
	}
	p.logger.Debug("published domain events",
		zap.Int("count", len(msgs)),
		zap.String("topic", p.writer.Topic))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
