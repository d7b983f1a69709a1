// Package cache provides the Redis-backed balance read cache and the token
// leaderboard. Redis is never authoritative: every value here can be rebuilt
// from the Postgres ledger.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"

	"github.com/admiral-games/token-ledger/internal/config"
)

// ErrCacheMiss indicates no cached balance for the account
var ErrCacheMiss = errors.New("balance not cached")

// CachedBalance is the cached view of an account's balance
type CachedBalance struct {
	Balance     decimal.Decimal `json:"balance"`
	LastUpdated time.Time       `json:"last_updated"`
}

// BalanceCache is the read-through cache for account balances
type BalanceCache interface {
	Get(ctx context.Context, accountID string) (*CachedBalance, error)
	Set(ctx context.Context, accountID string, balance *CachedBalance) error
	Invalidate(ctx context.Context, accountID string) error
}

type redisBalanceCache struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// NewBalanceCache creates a Redis-backed balance cache
func NewBalanceCache(client *redis.Client, logger *slog.Logger, cfg *config.RedisConfig) BalanceCache {
	return &redisBalanceCache{
		client: client,
		logger: logger,
		ttl:    cfg.BalanceTTL,
	}
}

func balanceKey(accountID string) string {
	return "balance:" + accountID
}

func (c *redisBalanceCache) Get(ctx context.Context, accountID string) (*CachedBalance, error) {
	raw, err := c.client.Get(ctx, balanceKey(accountID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read cached balance for %s: %w", accountID, err)
	}

	var cached CachedBalance
	if err := json.Unmarshal(raw, &cached); err != nil {
		// A corrupt value is treated as a miss so the caller falls back to
		// the authoritative store.
		c.logger.Warn("Dropping unparseable cached balance", "account_id", accountID)
		_ = c.client.Del(ctx, balanceKey(accountID)).Err()
		return nil, ErrCacheMiss
	}
	return &cached, nil
}

func (c *redisBalanceCache) Set(ctx context.Context, accountID string, balance *CachedBalance) error {
	raw, err := json.Marshal(balance)
	if err != nil {
		return fmt.Errorf("failed to encode cached balance for %s: %w", accountID, err)
	}
	if err := c.client.Set(ctx, balanceKey(accountID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache balance for %s: %w", accountID, err)
	}
	return nil
}

func (c *redisBalanceCache) Invalidate(ctx context.Context, accountID string) error {
	if err := c.client.Del(ctx, balanceKey(accountID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached balance for %s: %w", accountID, err)
	}
	return nil
}
