package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/admiral-games/token-ledger/internal/api_gateway/handler"
	"github.com/admiral-games/token-ledger/internal/api_gateway/middleware"
	"github.com/admiral-games/token-ledger/internal/platform/metrics"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	accountHandler *handler.AccountHandler,
	transactionHandler *handler.TransactionHandler,
	adminHandler *handler.AdminHandler,
	statsHandler *handler.StatsHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Account operations
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.Create)
			accounts.GET("/:id/balance", accountHandler.GetBalance)
			accounts.GET("/:id/transactions", transactionHandler.GetByAccountID)
		}

		// Transaction operations
		transactions := v1.Group("/transactions")
		{
			transactions.POST("", transactionHandler.Create)
			transactions.PATCH("/:id/external-reference", transactionHandler.AttachExternalReference)
		}

		// Privileged operations; the deployment fronts these with auth
		admin := v1.Group("/admin")
		{
			admin.POST("/tokens/grant", adminHandler.Grant)
			admin.POST("/tokens/revoke", adminHandler.Revoke)
			admin.DELETE("/accounts/:id", accountHandler.Delete)
		}

		// Read models
		v1.GET("/stats/tokens", statsHandler.TokenStats)
		v1.GET("/leaderboard", statsHandler.Leaderboard)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
}
