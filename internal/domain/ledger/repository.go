package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/admiral-games/token-ledger/internal/domain/shared"
)

// HistoryFilter is the closed set of history predicates. Fields left nil
// are not applied; there is no dynamic query construction beyond this
// struct.
type HistoryFilter struct {
	Type    *shared.TransactionType
	Source  *shared.Source
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

// Summary aggregates an account's history totals
type Summary struct {
	TotalEarned  string `json:"total_earned"`
	TotalSpent   string `json:"total_spent"`
	TotalEntries int64  `json:"total_entries"`
}

// Repository manages append-only ledger entry persistence
type Repository interface {
	// Create inserts the entry; a reused transaction id yields
	// ErrDuplicateEntry via the storage uniqueness constraint.
	Create(ctx context.Context, entry *Entry) error
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*Entry, error)

	// ListByAccount returns entries newest first
	ListByAccount(ctx context.Context, accountID string, filter HistoryFilter) ([]*Entry, error)
	CountByAccount(ctx context.Context, accountID string, filter HistoryFilter) (int64, error)
	SummarizeByAccount(ctx context.Context, accountID string) (*Summary, error)

	// AttachExternalReference records the on-chain transaction hash. It
	// succeeds only while no reference is set; committed balance fields are
	// never touched.
	AttachExternalReference(ctx context.Context, transactionID uuid.UUID, reference string) error

	// Tombstone flags all of an account's entries as belonging to a deleted
	// account, preserving them for audit.
	Tombstone(ctx context.Context, accountID string) error

	WithTx(tx pgx.Tx) Repository
}

// ErrEntryNotFound indicates a missing ledger entry
type ErrEntryNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "ledger entry not found: " + e.TransactionID.String()
}

// Is implements errors.Is; a zero target id matches any ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// ErrDuplicateEntry indicates the transaction id was already committed
type ErrDuplicateEntry struct {
	TransactionID uuid.UUID
}

func (e ErrDuplicateEntry) Error() string {
	return "duplicate ledger entry: " + e.TransactionID.String()
}

func (e ErrDuplicateEntry) Is(target error) bool {
	t, ok := target.(ErrDuplicateEntry)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// ErrReferenceAlreadySet indicates the entry already carries an on-chain hash
type ErrReferenceAlreadySet struct {
	TransactionID uuid.UUID
}

func (e ErrReferenceAlreadySet) Error() string {
	return "external reference already set: " + e.TransactionID.String()
}

func (e ErrReferenceAlreadySet) Is(target error) bool {
	t, ok := target.(ErrReferenceAlreadySet)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}
