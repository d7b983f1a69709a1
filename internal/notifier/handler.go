package notifier

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/admiral-games/token-ledger/internal/domain/shared"
	"github.com/admiral-games/token-ledger/internal/platform/messaging/consumers"
	"github.com/admiral-games/token-ledger/internal/platform/messaging/producers"
)

// NewBalanceEventHandler builds the Kafka message handler that feeds the
// dispatcher. Undecodable messages go to the DLQ and are committed so they
// cannot wedge the partition; dispatch failures are returned uncommitted so
// the event is redelivered.
func NewBalanceEventHandler(
	dispatcher *Dispatcher,
	dlqProducer producers.DeadLetterPublisher,
	logger *slog.Logger,
) consumers.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		var event shared.BalanceEvent
		if err := json.Unmarshal(value, &event); err != nil {
			logger.Error("Failed to unmarshal balance event, dead-lettering",
				"key", string(key),
				"error", err,
			)
			if dlqProducer != nil {
				if dlqErr := dlqProducer.PublishToDLQ(ctx, string(key), value, "unmarshal failed: "+err.Error()); dlqErr != nil {
					logger.Error("Failed to publish poison message to DLQ", "key", string(key), "error", dlqErr)
					return dlqErr
				}
			}
			return nil
		}

		return dispatcher.Dispatch(ctx, &event)
	}
}
