package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/admiral-games/token-ledger/internal/domain/account"
	"github.com/admiral-games/token-ledger/internal/domain/ledger"
	"github.com/admiral-games/token-ledger/internal/platform/cache"
	"github.com/admiral-games/token-ledger/internal/platform/persistence"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	db           persistence.TxBeginner
	accountRepo  account.Repository
	ledgerRepo   ledger.Repository
	balanceCache cache.BalanceCache
	leaderboard  cache.Leaderboard
	logger       *slog.Logger
}

// NewAccountService creates a new account service
func NewAccountService(
	db persistence.TxBeginner,
	accountRepo account.Repository,
	ledgerRepo ledger.Repository,
	balanceCache cache.BalanceCache,
	leaderboard cache.Leaderboard,
	logger *slog.Logger,
) AccountService {
	return &AccountServiceImpl{
		db:           db,
		accountRepo:  accountRepo,
		ledgerRepo:   ledgerRepo,
		balanceCache: balanceCache,
		leaderboard:  leaderboard,
		logger:       logger,
	}
}

func (s *AccountServiceImpl) Register(ctx context.Context, id string, initialBalance decimal.Decimal) (*account.Account, error) {
	acc, err := account.New(id, initialBalance)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.Create(ctx, acc); err != nil {
		return nil, err
	}

	return acc, nil
}

// Balance reads through the cache; a miss falls back to the account store
// and backfills the cache best effort.
func (s *AccountServiceImpl) Balance(ctx context.Context, id string) (*BalanceView, error) {
	cached, err := s.balanceCache.Get(ctx, id)
	if err == nil {
		return &BalanceView{
			AccountID:   id,
			Balance:     cached.Balance,
			LastUpdated: cached.LastUpdated,
			Cached:      true,
		}, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		// Degraded cache must not take balance reads down with it
		s.logger.Warn("Balance cache read failed, falling back to store", "account_id", id, "error", err)
	}

	acc, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if setErr := s.balanceCache.Set(ctx, id, &cache.CachedBalance{
		Balance:     acc.Balance,
		LastUpdated: acc.LastUpdated,
	}); setErr != nil {
		s.logger.Warn("Failed to backfill balance cache", "account_id", id, "error", setErr)
	}

	return &BalanceView{
		AccountID:   id,
		Balance:     acc.Balance,
		LastUpdated: acc.LastUpdated,
	}, nil
}

// Delete tombstones the account's ledger history and removes the account
// row in one transaction, then clears its cache and leaderboard presence.
func (s *AccountServiceImpl) Delete(ctx context.Context, id string) (err error) {
	if _, err = s.accountRepo.GetByID(ctx, id); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error("Failed to rollback account deletion", "account_id", id, "error", rbErr)
			}
		}
	}()

	if err = s.ledgerRepo.WithTx(tx).Tombstone(ctx, id); err != nil {
		return err
	}
	if err = s.accountRepo.WithTx(tx).Delete(ctx, id); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return err
	}

	// Cache cleanup is best effort: TTL and the leaderboard rebuild on the
	// next event cover any failure here.
	if cacheErr := s.balanceCache.Invalidate(ctx, id); cacheErr != nil {
		s.logger.Warn("Failed to invalidate balance cache after deletion", "account_id", id, "error", cacheErr)
	}
	if boardErr := s.leaderboard.Remove(ctx, id); boardErr != nil {
		s.logger.Warn("Failed to remove account from leaderboard after deletion", "account_id", id, "error", boardErr)
	}

	s.logger.Info("Deleted account and tombstoned its history", "account_id", id)
	return nil
}
