package shared

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionRequest describes a single requested balance transition.
// TransactionID doubles as the idempotency key: resubmitting the same id
// returns the originally committed entry instead of reapplying the delta.
type TransactionRequest struct {
	TransactionID     uuid.UUID       `json:"transaction_id"`
	AccountID         string          `json:"account_id"`
	Type              TransactionType `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	Source            Source          `json:"source"`
	SourceID          string          `json:"source_id,omitempty"`
	Description       string          `json:"description,omitempty"`
	Metadata          json.RawMessage `json:"metadata,omitempty"`
	ExternalReference string          `json:"external_reference,omitempty"`
	CorrelationID     string          `json:"correlation_id,omitempty"`
	Timestamp         time.Time       `json:"timestamp"`
}
