package account

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/admiral-games/token-ledger/internal/domain/shared"
)

// Common errors
var (
	ErrInvalidAmount   = errors.New("amount must be non-zero")
	ErrEmptyAccountID  = errors.New("account id cannot be empty")
	ErrNegativeBalance = errors.New("balance cannot be negative")
)

// Account holds the current token balance for one wallet address.
// It is mutated exclusively by the ledger engine; Version is the
// concurrency token checked on every write.
type Account struct {
	ID          string          `json:"id"`
	Balance     decimal.Decimal `json:"balance"`
	Version     int             `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	LastUpdated time.Time       `json:"last_updated"`
}

// New creates an account with the given starting balance. First-touch
// creation passes a zero balance.
func New(id string, initialBalance decimal.Decimal) (*Account, error) {
	if id == "" {
		return nil, ErrEmptyAccountID
	}
	if initialBalance.IsNegative() {
		return nil, ErrNegativeBalance
	}

	now := time.Now().UTC()
	return &Account{
		ID:          id,
		Balance:     initialBalance,
		Version:     1,
		CreatedAt:   now,
		LastUpdated: now,
	}, nil
}

// Apply computes and applies the balance transition for the given
// transaction type. Debits and negative transfers clamp at zero instead of
// failing. It returns the balance before and after the transition.
func (a *Account) Apply(txType shared.TransactionType, amount decimal.Decimal) (before, after decimal.Decimal, err error) {
	if amount.IsZero() {
		return decimal.Zero, decimal.Zero, ErrInvalidAmount
	}
	if amount.IsNegative() && txType != shared.TransactionTypeTransferred {
		return decimal.Zero, decimal.Zero, ErrInvalidAmount
	}

	before = a.Balance
	switch {
	case txType.IsCredit():
		after = before.Add(amount)
	case txType.IsDebit():
		after = before.Sub(amount)
	case txType == shared.TransactionTypeTransferred:
		// amount carries its own sign for transfers
		after = before.Add(amount)
	default:
		return decimal.Zero, decimal.Zero, ErrInvalidAmount
	}

	if after.IsNegative() {
		after = decimal.Zero
	}

	a.Balance = after
	a.Version++
	a.LastUpdated = time.Now().UTC()
	return before, after, nil
}
