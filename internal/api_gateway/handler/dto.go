package handler

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/admiral-games/token-ledger/internal/domain/ledger"
)

// CreateTransactionRequest represents a request to apply a balance transition
type CreateTransactionRequest struct {
	TransactionID string          `json:"transaction_id,omitempty"`
	AccountID     string          `json:"account_id" binding:"required"`
	Type          string          `json:"type" binding:"required,oneof=earned spent bonus penalty transferred"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Source        string          `json:"source" binding:"required"`
	SourceID      string          `json:"source_id,omitempty"`
	Description   string          `json:"description,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

// TransactionResponse represents a committed ledger entry in API responses
type TransactionResponse struct {
	TransactionID     string          `json:"transaction_id"`
	AccountID         string          `json:"account_id"`
	Type              string          `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	BalanceBefore     decimal.Decimal `json:"balance_before"`
	BalanceAfter      decimal.Decimal `json:"balance_after"`
	Source            string          `json:"source"`
	SourceID          string          `json:"source_id,omitempty"`
	Description       string          `json:"description,omitempty"`
	Metadata          json.RawMessage `json:"metadata,omitempty"`
	ExternalReference string          `json:"external_reference,omitempty"`
	CreatedAt         string          `json:"created_at"`
}

func mapEntryToResponse(entry *ledger.Entry) TransactionResponse {
	return TransactionResponse{
		TransactionID:     entry.TransactionID.String(),
		AccountID:         entry.AccountID,
		Type:              string(entry.Type),
		Amount:            entry.Amount,
		BalanceBefore:     entry.BalanceBefore,
		BalanceAfter:      entry.BalanceAfter,
		Source:            string(entry.Source),
		SourceID:          entry.SourceID,
		Description:       entry.Description,
		Metadata:          entry.Metadata,
		ExternalReference: entry.ExternalReference,
		CreatedAt:         entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// TransactionListResponse carries a history page plus the account's totals
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Summary      *ledger.Summary       `json:"summary"`
}

// HistoryQueryParams represents the filter and pagination query parameters
// for transaction history
type HistoryQueryParams struct {
	Type    string `form:"type" binding:"omitempty,oneof=earned spent bonus penalty transferred"`
	Source  string `form:"source" binding:"omitempty,oneof=level_completion achievement daily_bonus referral purchase admin penalty"`
	From    string `form:"from" binding:"omitempty"`
	To      string `form:"to" binding:"omitempty"`
	Page    int    `form:"page,default=1" binding:"min=1"`
	PerPage int    `form:"per_page,default=20" binding:"min=1,max=100"`
}

// CreateAccountRequest represents an account pre-registration request
type CreateAccountRequest struct {
	AccountID      string          `json:"account_id" binding:"required"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	AccountID   string          `json:"account_id"`
	Balance     decimal.Decimal `json:"balance"`
	CreatedAt   string          `json:"created_at"`
	LastUpdated string          `json:"last_updated"`
}

// BalanceResponse represents a balance read in API responses
type BalanceResponse struct {
	AccountID   string          `json:"account_id"`
	Balance     decimal.Decimal `json:"balance"`
	LastUpdated string          `json:"last_updated"`
	Cached      bool            `json:"cached"`
}

// AdminTokenRequest represents an admin grant or revoke request
type AdminTokenRequest struct {
	TransactionID string          `json:"transaction_id,omitempty"`
	AccountID     string          `json:"account_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Description   string          `json:"description,omitempty"`
}

// AttachReferenceRequest represents a blockchain reference annotation
type AttachReferenceRequest struct {
	ExternalReference string `json:"external_reference" binding:"required"`
}
