package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/admiral-games/token-ledger/internal/domain/ledger"
	"github.com/admiral-games/token-ledger/internal/domain/shared"
	"github.com/admiral-games/token-ledger/internal/platform/cache"
)

// CacheInvalidator drops the cached balance so the next read goes back to
// the authoritative store. Invalidation is used instead of writing the event
// balance because it stays correct regardless of event redelivery order.
type CacheInvalidator struct {
	cache cache.BalanceCache
}

func NewCacheInvalidator(balanceCache cache.BalanceCache) *CacheInvalidator {
	return &CacheInvalidator{cache: balanceCache}
}

func (s *CacheInvalidator) Name() string { return "balance_cache_invalidator" }

func (s *CacheInvalidator) Notify(ctx context.Context, event *shared.BalanceEvent) error {
	return s.cache.Invalidate(ctx, event.AccountID)
}

// LeaderboardUpdater records the account's new balance on the leaderboard
type LeaderboardUpdater struct {
	board cache.Leaderboard
}

func NewLeaderboardUpdater(board cache.Leaderboard) *LeaderboardUpdater {
	return &LeaderboardUpdater{board: board}
}

func (s *LeaderboardUpdater) Name() string { return "leaderboard_updater" }

func (s *LeaderboardUpdater) Notify(ctx context.Context, event *shared.BalanceEvent) error {
	return s.board.Record(ctx, event.AccountID, event.Balance)
}

// EntryArchiver stores ledger entry snapshots in the history archive
type EntryArchiver interface {
	Archive(ctx context.Context, entry *ledger.Entry) error
}

// Archiver copies the committed ledger entry into the history archive. The
// event only carries the new balance, so the full entry is read back from
// the ledger by transaction id.
type Archiver struct {
	ledgerRepo ledger.Repository
	archive    EntryArchiver
	logger     *slog.Logger
}

func NewArchiver(ledgerRepo ledger.Repository, archive EntryArchiver, logger *slog.Logger) *Archiver {
	return &Archiver{
		ledgerRepo: ledgerRepo,
		archive:    archive,
		logger:     logger,
	}
}

func (s *Archiver) Name() string { return "history_archiver" }

func (s *Archiver) Notify(ctx context.Context, event *shared.BalanceEvent) error {
	entry, err := s.ledgerRepo.GetByTransactionID(ctx, event.TransactionID)
	if err != nil {
		if errors.Is(err, ledger.ErrEntryNotFound{}) {
			// Should not happen: the outbox row commits with the entry. Skip
			// rather than retry a lookup that can never succeed.
			s.logger.Warn("Ledger entry missing before archiving, skipping",
				"transaction_id", event.TransactionID.String(),
			)
			return nil
		}
		return fmt.Errorf("failed to load entry %s for archiving: %w", event.TransactionID, err)
	}

	return s.archive.Archive(ctx, entry)
}
