package cache

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

const leaderboardKey = "leaderboard:balances"

// LeaderboardEntry is one ranked account
type LeaderboardEntry struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	Rank      int             `json:"rank"`
}

// Leaderboard ranks accounts by current balance
type Leaderboard interface {
	Record(ctx context.Context, accountID string, balance decimal.Decimal) error
	Remove(ctx context.Context, accountID string) error
	Top(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

type redisLeaderboard struct {
	client *redis.Client
}

// NewLeaderboard creates a Redis sorted-set leaderboard
func NewLeaderboard(client *redis.Client) Leaderboard {
	return &redisLeaderboard{client: client}
}

func (l *redisLeaderboard) Record(ctx context.Context, accountID string, balance decimal.Decimal) error {
	err := l.client.ZAdd(ctx, leaderboardKey, &redis.Z{
		Score:  balance.InexactFloat64(),
		Member: accountID,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to record leaderboard score for %s: %w", accountID, err)
	}
	return nil
}

func (l *redisLeaderboard) Remove(ctx context.Context, accountID string) error {
	if err := l.client.ZRem(ctx, leaderboardKey, accountID).Err(); err != nil {
		return fmt.Errorf("failed to remove %s from leaderboard: %w", accountID, err)
	}
	return nil
}

func (l *redisLeaderboard) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	scores, err := l.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(scores))
	for i, z := range scores {
		accountID, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			AccountID: accountID,
			Balance:   decimal.NewFromFloat(z.Score),
			Rank:      i + 1,
		})
	}
	return entries, nil
}
