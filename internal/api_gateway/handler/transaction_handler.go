package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/admiral-games/token-ledger/internal/api_gateway/middleware"
	"github.com/admiral-games/token-ledger/internal/api_gateway/service"
	"github.com/admiral-games/token-ledger/internal/domain/ledger"
	"github.com/admiral-games/token-ledger/internal/domain/shared"
)

// TransactionHandler handles HTTP requests for transaction operations
type TransactionHandler struct {
	ledgerService service.LedgerService
	logger        *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, ledgerService service.LedgerService) *TransactionHandler {
	return &TransactionHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// Create applies a transaction. A fresh commit answers 201; resubmitting an
// already committed transaction id answers 200 with the original entry.
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
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

	transactionRequest := &shared.TransactionRequest{
		TransactionID: transactionID,
		AccountID:     req.AccountID,
		Type:          shared.TransactionType(req.Type),
		Amount:        req.Amount,
		Source:        shared.Source(req.Source),
		SourceID:      req.SourceID,
		Description:   req.Description,
		Metadata:      req.Metadata,
		CorrelationID: middleware.GetCorrelationID(c),
		Timestamp:     time.Now().UTC(),
	}

	entry, replayed, err := h.ledgerService.Submit(c.Request.Context(), transactionRequest)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	if replayed {
		RespondOK(c, mapEntryToResponse(entry))
		return
	}
	RespondCreated(c, mapEntryToResponse(entry))
}

// GetByAccountID retrieves filtered, paginated transaction history for an
// account, newest first, together with the account's summary totals.
func (h *TransactionHandler) GetByAccountID(c *gin.Context) {
	accountID := c.Param("id")
	if accountID == "" {
		RespondBadRequest(c, "Account ID is required")
		return
	}

	var params HistoryQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter, err := buildHistoryFilter(params)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	entries, total, summary, err := h.ledgerService.History(c.Request.Context(), accountID, filter)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	transactions := make([]TransactionResponse, 0, len(entries))
	for _, entry := range entries {
		transactions = append(transactions, mapEntryToResponse(entry))
	}

	RespondWithPaginatedData(c, 200, TransactionListResponse{
		Transactions: transactions,
		Summary:      summary,
	}, params.Page, params.PerPage, int(total))
}

// AttachExternalReference records an external (on-chain) reference on a
// committed entry. The reference is write-once.
func (h *TransactionHandler) AttachExternalReference(c *gin.Context) {
	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	var req AttachReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	entry, err := h.ledgerService.AttachExternalReference(c.Request.Context(), transactionID, req.ExternalReference)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapEntryToResponse(entry))
}

func buildHistoryFilter(params HistoryQueryParams) (ledger.HistoryFilter, error) {
	filter := ledger.HistoryFilter{
		Limit:  params.PerPage,
		Offset: (params.Page - 1) * params.PerPage,
	}

	if params.Type != "" {
		txType := shared.TransactionType(params.Type)
		filter.Type = &txType
	}
	if params.Source != "" {
		source := shared.Source(params.Source)
		filter.Source = &source
	}
	if params.From != "" {
		from, err := time.Parse(time.RFC3339, params.From)
		if err != nil {
			return filter, shared.ValidationError{Field: "from", Reason: "must be RFC 3339"}
		}
		filter.From = &from
	}
	if params.To != "" {
		to, err := time.Parse(time.RFC3339, params.To)
		if err != nil {
			return filter, shared.ValidationError{Field: "to", Reason: "must be RFC 3339"}
		}
		filter.To = &to
	}

	return filter, nil
}
