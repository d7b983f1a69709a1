package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/admiral-games/token-ledger/internal/api_gateway/middleware"
	"github.com/admiral-games/token-ledger/internal/api_gateway/service"
	"github.com/admiral-games/token-ledger/internal/domain/shared"
)

// AdminHandler handles privileged token adjustments. Authentication is the
// deployment's concern; these routes are expected to sit behind it.
type AdminHandler struct {
	ledgerService service.LedgerService
	logger        *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(logger *slog.Logger, ledgerService service.LedgerService) *AdminHandler {
	return &AdminHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// Grant credits tokens to an account as an admin bonus
func (h *AdminHandler) Grant(c *gin.Context) {
	h.adjust(c, shared.TransactionTypeBonus)
}

// Revoke debits tokens from an account as an admin penalty
func (h *AdminHandler) Revoke(c *gin.Context) {
	h.adjust(c, shared.TransactionTypePenalty)
}

func (h *AdminHandler) adjust(c *gin.Context, txType shared.TransactionType) {
	var req AdminTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	transactionID := uuid.Nil
	if req.TransactionID != "" {
		parsed, err := uuid.Parse(req.TransactionID)
		if err != nil {
			RespondBadRequest(c, "Invalid transaction ID")
			return
		}
		transactionID = parsed
	}

	entry, replayed, err := h.ledgerService.Submit(c.Request.Context(), &shared.TransactionRequest{
		TransactionID: transactionID,
		AccountID:     req.AccountID,
		Type:          txType,
		Amount:        req.Amount,
		Source:        shared.SourceAdmin,
		Description:   req.Description,
		CorrelationID: middleware.GetCorrelationID(c),
		Timestamp:     time.Now().UTC(),
	})
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	h.logger.Info("Admin token adjustment applied",
		"account_id", req.AccountID,
		"type", string(txType),
		"amount", req.Amount.String(),
	)

	if replayed {
		RespondOK(c, mapEntryToResponse(entry))
		return
	}
	RespondCreated(c, mapEntryToResponse(entry))
}
