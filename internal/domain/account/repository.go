package account

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository defines account persistence operations
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)

	// Update persists the account with a version check; a stale version
	// yields ErrConcurrentModification.
	Update(ctx context.Context, account *Account) error

	// LockForUpdate acquires a row lock for the duration of the enclosing
	// transaction, serializing same-account writers.
	LockForUpdate(ctx context.Context, id string) (*Account, error)

	// Delete removes the account row. Ledger history is tombstoned, not
	// deleted; callers run both in one transaction.
	Delete(ctx context.Context, id string) error

	WithTx(tx pgx.Tx) Repository
}

// ErrConcurrentModification indicates a stale concurrency token
type ErrConcurrentModification struct {
	AccountID string
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for account: " + e.AccountID
}

// Is matches any ErrConcurrentModification when the target has no account id
func (e ErrConcurrentModification) Is(target error) bool {
	t, ok := target.(ErrConcurrentModification)
	if !ok {
		return false
	}
	return t.AccountID == "" || t.AccountID == e.AccountID
}

// ErrAccountNotFound indicates a missing account row
type ErrAccountNotFound struct {
	AccountID string
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountID
}

func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	return t.AccountID == "" || t.AccountID == e.AccountID
}

// ErrDuplicateAccount indicates the wallet address is already registered
type ErrDuplicateAccount struct {
	AccountID string
}

func (e ErrDuplicateAccount) Error() string {
	return "account already exists: " + e.AccountID
}

func (e ErrDuplicateAccount) Is(target error) bool {
	t, ok := target.(ErrDuplicateAccount)
	if !ok {
		return false
	}
	return t.AccountID == "" || t.AccountID == e.AccountID
}
