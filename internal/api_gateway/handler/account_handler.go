package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/admiral-games/token-ledger/internal/api_gateway/service"
)

// AccountHandler handles HTTP requests for account operations
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Create pre-registers an account before its first transaction
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := h.accountService.Register(c.Request.Context(), req.AccountID, req.InitialBalance)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, AccountResponse{
		AccountID:   acc.ID,
		Balance:     acc.Balance,
		CreatedAt:   acc.CreatedAt.UTC().Format(time.RFC3339Nano),
		LastUpdated: acc.LastUpdated.UTC().Format(time.RFC3339Nano),
	})
}

// GetBalance reads the account's current balance through the cache
func (h *AccountHandler) GetBalance(c *gin.Context) {
	accountID := c.Param("id")
	if accountID == "" {
		RespondBadRequest(c, "Account ID is required")
		return
	}

	view, err := h.accountService.Balance(c.Request.Context(), accountID)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, BalanceResponse{
		AccountID:   view.AccountID,
		Balance:     view.Balance,
		LastUpdated: view.LastUpdated.UTC().Format(time.RFC3339Nano),
		Cached:      view.Cached,
	})
}

// Delete removes an account; its ledger history stays tombstoned for audit
func (h *AccountHandler) Delete(c *gin.Context) {
	accountID := c.Param("id")
	if accountID == "" {
		RespondBadRequest(c, "Account ID is required")
		return
	}

	if err := h.accountService.Delete(c.Request.Context(), accountID); err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondNoContent(c)
}
