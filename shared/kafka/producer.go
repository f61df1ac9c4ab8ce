package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

// Stage event statuses.
const (
	StatusAdvanced = "advanced"
	StatusFailed   = "failed"
	StatusRejected = "rejected"
)

// StageEvent reports one work item stage transition or failure.
type StageEvent struct {
	RunID      string    `json:"run_id"`
	WorkItemID string    `json:"work_item_id"`
	Stage      string    `json:"stage"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

// EventPublisher publishes stage events.
type EventPublisher interface {
	Publish(ctx context.Context, ev StageEvent) error
	Close() error
}

// NopPublisher drops events. It is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, StageEvent) error { return nil }
func (NopPublisher) Close() error                              { return nil }

// Producer publishes stage events keyed by work item id, so the events of
// one item stay ordered within a partition.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers []string
	Topic   string
}

// NewProducer connects a synchronous producer.
func NewProducer(config ProducerConfig) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = true

	sp, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("creating kafka producer: %w", err)
	}
	return NewProducerWith(sp, config.Topic), nil
}

// NewProducerWith wraps an existing sync producer.
func NewProducerWith(sp sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: sp, topic: topic}
}

func (p *Producer) Publish(ctx context.Context, ev StageEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.WorkItemID),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("publishing stage event: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}

// LoggingPublisher logs publish failures instead of returning them; events
// are advisory and must not fail a stage.
type LoggingPublisher struct {
	Next   EventPublisher
	Logger *slog.Logger
}

func (l LoggingPublisher) Publish(ctx context.Context, ev StageEvent) error {
	if err := l.Next.Publish(ctx, ev); err != nil {
		l.Logger.Warn("stage event not published", "work_item", ev.WorkItemID, "stage", ev.Stage, "error", err)
	}
	return nil
}

func (l LoggingPublisher) Close() error { return l.Next.Close() }
