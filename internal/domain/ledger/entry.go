package ledger

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/admiral-games/token-ledger/internal/domain/shared"
)

// Entry is one applied balance transition. Entries are immutable once
// committed; the only later mutations are attaching an on-chain reference
// and tombstoning on account deletion, both of which leave the balance
// fields untouched.
type Entry struct {
	TransactionID     uuid.UUID              `json:"transaction_id" bson:"transaction_id"`
	AccountID         string                 `json:"account_id" bson:"account_id"`
	Type              shared.TransactionType `json:"type" bson:"type"`
	Amount            decimal.Decimal        `json:"amount" bson:"amount"`
	BalanceBefore     decimal.Decimal        `json:"balance_before" bson:"balance_before"`
	BalanceAfter      decimal.Decimal        `json:"balance_after" bson:"balance_after"`
	Source            shared.Source          `json:"source" bson:"source"`
	SourceID          string                 `json:"source_id,omitempty" bson:"source_id,omitempty"`
	Description       string                 `json:"description,omitempty" bson:"description,omitempty"`
	Metadata          json.RawMessage        `json:"metadata,omitempty" bson:"metadata,omitempty"`
	ExternalReference string                 `json:"external_reference,omitempty" bson:"external_reference,omitempty"`
	CorrelationID     string                 `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	TombstonedAt      *time.Time             `json:"tombstoned_at,omitempty" bson:"tombstoned_at,omitempty"`
	CreatedAt         time.Time              `json:"created_at" bson:"created_at"`
}

// NewEntry builds the entry for a computed transition. Amount is stored as
// an unsigned magnitude; direction is recoverable from the type and the
// before/after pair. The entry is stamped with the request's receive time
// so retried applies keep a stable created_at.
func NewEntry(req *shared.TransactionRequest, before, after decimal.Decimal) *Entry {
	createdAt := req.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return &Entry{
		TransactionID:     req.TransactionID,
		AccountID:         req.AccountID,
		Type:              req.Type,
		Amount:            req.Amount.Abs(),
		BalanceBefore:     before,
		BalanceAfter:      after,
		Source:            req.Source,
		SourceID:          req.SourceID,
		Description:       req.Description,
		Metadata:          req.Metadata,
		ExternalReference: req.ExternalReference,
		CorrelationID:     req.CorrelationID,
		CreatedAt:         createdAt,
	}
}
