package service

import (
	"context"

	mongodata "github.com/admiral-games/token-ledger/internal/data/mongo"
	"github.com/admiral-games/token-ledger/internal/platform/cache"
)

// StatsServiceImpl implements the StatsService interface over the Mongo
// archive and the Redis leaderboard. Both are eventually consistent read
// models fed by the notifier.
type StatsServiceImpl struct {
	archive     *mongodata.ArchiveRepository
	leaderboard cache.Leaderboard
}

// NewStatsService creates a new stats service
func NewStatsService(archive *mongodata.ArchiveRepository, leaderboard cache.Leaderboard) StatsService {
	return &StatsServiceImpl{
		archive:     archive,
		leaderboard: leaderboard,
	}
}

func (s *StatsServiceImpl) TokenStats(ctx context.Context) (*mongodata.TokenStats, error) {
	return s.archive.TokenStats(ctx)
}

func (s *StatsServiceImpl) DailyVolume(ctx context.Context, days int) ([]mongodata.DailyVolume, error) {
	return s.archive.DailyVolume(ctx, days)
}

func (s *StatsServiceImpl) Leaderboard(ctx context.Context, limit int) ([]cache.LeaderboardEntry, error) {
	return s.leaderboard.Top(ctx, limit)
}
