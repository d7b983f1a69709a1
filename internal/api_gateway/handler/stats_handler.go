package handler

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/admiral-games/token-ledger/internal/api_gateway/service"
)

// StatsHandler serves aggregate token statistics and the leaderboard. Both
// come from eventually consistent read models fed by the notifier, so
// numbers can trail the ledger by a short moment.
type StatsHandler struct {
	statsService service.StatsService
	logger       *slog.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(logger *slog.Logger, statsService service.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
		logger:       logger,
	}
}

// TokenStats returns economy-wide totals from the history archive
func (h *StatsHandler) TokenStats(c *gin.Context) {
	stats, err := h.statsService.TokenStats(c.Request.Context())
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 90 {
			RespondBadRequest(c, "days must be between 1 and 90")
			return
		}
		days = parsed
	}

	volume, err := h.statsService.DailyVolume(c.Request.Context(), days)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, gin.H{
		"totals":       stats,
		"daily_volume": volume,
	})
}

// Leaderboard returns the top accounts by balance
func (h *StatsHandler) Leaderboard(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			RespondBadRequest(c, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	entries, err := h.statsService.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, gin.H{"leaderboard": entries})
}
