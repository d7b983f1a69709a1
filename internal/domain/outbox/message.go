package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/admiral-games/token-ledger/internal/domain/shared"
)

// Status tracks a message through the publish lifecycle
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusProcessed       Status = "PROCESSED"
	StatusFailedToPublish Status = "FAILED_TO_PUBLISH"
)

// Message stores a balance event for reliable, at-least-once publishing.
// It is written in the same transaction as the ledger entry and the account
// update, so a committed transition always has its notification queued.
type Message struct {
	ID            int64           `json:"id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	AccountID     string          `json:"account_id"`
	Payload       json.RawMessage `json:"payload"`
	Status        Status          `json:"status"`
	Attempts      int             `json:"attempts"`
	CreatedAt     time.Time       `json:"created_at"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
}

func NewMessage(event *shared.BalanceEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		TransactionID: event.TransactionID,
		AccountID:     event.AccountID,
		Payload:       payload,
		Status:        StatusPending,
		Attempts:      0,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Event decodes the balance event payload
func (m *Message) Event() (*shared.BalanceEvent, error) {
	var event shared.BalanceEvent
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
