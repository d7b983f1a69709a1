// Package notifier moves committed balance changes from the transactional
// outbox to every downstream consumer: the Kafka topic, the balance cache,
// the leaderboard, and the history archive. Delivery is at least once;
// subscribers are expected to tolerate redelivery.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/admiral-games/token-ledger/internal/domain/outbox"
	"github.com/admiral-games/token-ledger/internal/platform/messaging/producers"
	"github.com/admiral-games/token-ledger/internal/platform/metrics"
)

// EventPublisher publishes one pending outbox message downstream
type EventPublisher interface {
	PublishPending(ctx context.Context, message *outbox.Message) error
}

type kafkaEventPublisher struct {
	outboxRepo outbox.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

// NewEventPublisher creates a publisher that pushes outbox messages to Kafka
func NewEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) EventPublisher {
	return &kafkaEventPublisher{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

func (p *kafkaEventPublisher) PublishPending(ctx context.Context, message *outbox.Message) error {
	event, err := message.Event()
	if err != nil {
		// An undecodable payload can never succeed, so it is parked rather
		// than retried forever.
		p.logger.Error("Failed to decode outbox payload, parking message",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, outbox.StatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to park undecodable outbox message",
				"outbox_id", message.ID, "update_error", updateErr,
			)
		}
		metrics.NotificationDropped()
		return fmt.Errorf("decode payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	// Keyed by account so one account's events stay ordered on one partition
	if err := p.producer.Publish(ctx, event.AccountID, event); err != nil {
		return fmt.Errorf("publish balance event for outbox %d failed: %w", message.ID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, outbox.StatusProcessed); err != nil {
		// The event is on the topic; failing here means it will be published
		// again, which subscribers must absorb.
		logger.Error("Event published but failed to mark outbox message as PROCESSED",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		return fmt.Errorf("publish for %s OK, but failed to mark outbox %d as PROCESSED: %w",
			message.TransactionID, message.ID, err)
	}

	metrics.NotificationPublished()
	logger.Debug("Published balance event from outbox",
		"outbox_id", message.ID, "transaction_id", message.TransactionID,
	)
	return nil
}
