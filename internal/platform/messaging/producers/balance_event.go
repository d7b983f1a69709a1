package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/admiral-games/token-ledger/internal/config"
)

// BalanceEventProducer publishes committed balance events for the notifier
// fan-out. Writes are synchronous with full acks: the outbox poller marks a
// row processed only after the broker confirmed the event, which is what
// gives subscribers their at-least-once guarantee.
type BalanceEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewBalanceEventProducer creates the producer and ensures the topic exists
func NewBalanceEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*BalanceEventProducer, error) {
	if cfg.BalanceTopic == "" {
		return nil, fmt.Errorf("kafka balance topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for balance event producer: %w", err)
	}
	defer conn.Close()

	if err := ensureTopic(conn, cfg.BalanceTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure balance topic %s exists: %w", cfg.BalanceTopic, err)
	}

	writer := &kafka.Writer{
		Addr:  kafka.TCP(cfg.Brokers),
		Topic: cfg.BalanceTopic,
		// Hash by key so all events of one account land on one partition,
		// preserving per-account ordering across the fan-out.
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &BalanceEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.BalanceTopic,
	}, nil
}

func (p *BalanceEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal balance event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish balance event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish balance event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published balance event", "topic", p.topic, "key", key)
	return nil
}

func (p *BalanceEventProducer) Close() error {
	p.logger.Info("Closing balance event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
