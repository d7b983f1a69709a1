package shared

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceEvent is published after a committed balance transition. It feeds
// the change-notification fan-out: cache invalidation, leaderboard
// recompute, and the history archive. Delivery is at-least-once, so
// consumers must treat it idempotently.
type BalanceEvent struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	AccountID     string          `json:"account_id"`
	Balance       decimal.Decimal `json:"balance"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
