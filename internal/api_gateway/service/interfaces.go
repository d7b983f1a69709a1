package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	mongodata "github.com/admiral-games/token-ledger/internal/data/mongo"
	"github.com/admiral-games/token-ledger/internal/domain/account"
	"github.com/admiral-games/token-ledger/internal/domain/ledger"
	"github.com/admiral-games/token-ledger/internal/domain/shared"
	"github.com/admiral-games/token-ledger/internal/platform/cache"
)

// Submitter is implemented by the ledger engine
type Submitter interface {
	Submit(ctx context.Context, req *shared.TransactionRequest) (*ledger.Entry, bool, error)
}

// LedgerService exposes transaction operations to the HTTP layer
type LedgerService interface {
	// Submit applies a transaction; replayed reports that the id was
	// already committed and the returned entry is the original one.
	Submit(ctx context.Context, req *shared.TransactionRequest) (entry *ledger.Entry, replayed bool, err error)

	// History returns an account's entries newest first along with the
	// total matching count and the account's summary totals.
	History(ctx context.Context, accountID string, filter ledger.HistoryFilter) ([]*ledger.Entry, int64, *ledger.Summary, error)

	// AttachExternalReference records an on-chain reference on a committed
	// entry. Fails once a reference is present.
	AttachExternalReference(ctx context.Context, transactionID uuid.UUID, reference string) (*ledger.Entry, error)
}

// BalanceView is an account balance read, possibly served from cache
type BalanceView struct {
	AccountID   string
	Balance     decimal.Decimal
	LastUpdated time.Time
	Cached      bool
}

// AccountService exposes account lifecycle operations to the HTTP layer
type AccountService interface {
	// Register creates an account ahead of its first transaction
	Register(ctx context.Context, id string, initialBalance decimal.Decimal) (*account.Account, error)

	// Balance reads the current balance through the cache
	Balance(ctx context.Context, id string) (*BalanceView, error)

	// Delete removes the account and tombstones its ledger history in one
	// transaction.
	Delete(ctx context.Context, id string) error
}

// StatsService exposes the archive read models and the leaderboard
type StatsService interface {
	TokenStats(ctx context.Context) (*mongodata.TokenStats, error)
	DailyVolume(ctx context.Context, days int) ([]mongodata.DailyVolume, error)
	Leaderboard(ctx context.Context, limit int) ([]cache.LeaderboardEntry, error)
}
