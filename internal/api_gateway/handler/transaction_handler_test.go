package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/admiral-games/token-ledger/internal/api_gateway/service"
	"github.com/admiral-games/token-ledger/internal/domain/ledger"
	"github.com/admiral-games/token-ledger/internal/domain/shared"
)

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Submit(ctx context.Context, req *shared.TransactionRequest) (*ledger.Entry, bool, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*ledger.Entry), args.Bool(1), args.Error(2)
}

func (m *MockLedgerService) History(ctx context.Context, accountID string, filter ledger.HistoryFilter) ([]*ledger.Entry, int64, *ledger.Summary, error) {
	args := m.Called(ctx, accountID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), nil, args.Error(3)
	}
	return args.Get(0).([]*ledger.Entry), args.Get(1).(int64), args.Get(2).(*ledger.Summary), args.Error(3)
}

func (m *MockLedgerService) AttachExternalReference(ctx context.Context, transactionID uuid.UUID, reference string) (*ledger.Entry, error) {
	args := m.Called(ctx, transactionID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

var _ service.LedgerService = (*MockLedgerService)(nil)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.Default()
	return r
}

func committedEntry(accountID string) *ledger.Entry {
	return &ledger.Entry{
		TransactionID: uuid.New(),
		AccountID:     accountID,
		Type:          shared.TransactionTypeEarned,
		Amount:        decimal.NewFromInt(50),
		BalanceBefore: decimal.NewFromInt(100),
		BalanceAfter:  decimal.NewFromInt(150),
		Source:        shared.SourceLevelCompletion,
		CreatedAt:     time.Now().UTC(),
	}
}

func decodeData[T any](t *testing.T, body []byte) T {
	t.Helper()
	var topLevel Response
	require.NoError(t, json.Unmarshal(body, &topLevel))
	require.NotNil(t, topLevel.Data, "'data' field should not be nil")

	dataBytes, err := json.Marshal(topLevel.Data)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(dataBytes, &out))
	return out
}

func TestTransactionHandler_Create(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	postTransaction := func(handler *TransactionHandler, body any) *httptest.ResponseRecorder {
		router := setupTestRouter()
		router.POST("/transactions", handler.Create)

		jsonBody, _ := json.Marshal(body)
		req, _ := http.NewRequest(http.MethodPost, "/transactions", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewTransactionHandler(logger, mockService)

		expectedEntry := committedEntry("player_77")
		mockService.On("Submit", mock.Anything, mock.MatchedBy(func(req *shared.TransactionRequest) bool {
			return req.AccountID == "player_77" &&
				req.Type == shared.TransactionTypeEarned &&
				req.Amount.Equal(decimal.NewFromInt(50))
		})).Return(expectedEntry, false, nil)

		rr := postTransaction(handler, CreateTransactionRequest{
			AccountID: "player_77",
			Type:      "earned",
			Amount:    decimal.NewFromInt(50),
			Source:    "level_completion",
		})

		assert.Equal(t, http.StatusCreated, rr.Code)

		responseBody := decodeData[TransactionResponse](t, rr.Body.Bytes())
		assert.Equal(t, expectedEntry.TransactionID.String(), responseBody.TransactionID)
		assert.Equal(t, "player_77", responseBody.AccountID)
		assert.True(t, expectedEntry.BalanceAfter.Equal(responseBody.BalanceAfter))

		mockService.AssertExpectations(t)
	})

	t.Run("ReplayAnswersOK", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewTransactionHandler(logger, mockService)

		transactionID := uuid.New()
		expectedEntry := committedEntry("player_77")
		expectedEntry.TransactionID = transactionID
		mockService.On("Submit", mock.Anything, mock.MatchedBy(func(req *shared.TransactionRequest) bool {
			return req.TransactionID == transactionID
		})).Return(expectedEntry, true, nil)

		rr := postTransaction(handler, CreateTransactionRequest{
			TransactionID: transactionID.String(),
			AccountID:     "player_77",
			Type:          "earned",
			Amount:        decimal.NewFromInt(50),
			Source:        "level_completion",
		})

		assert.Equal(t, http.StatusOK, rr.Code)

		responseBody := decodeData[TransactionResponse](t, rr.Body.Bytes())
		assert.Equal(t, transactionID.String(), responseBody.TransactionID)

		mockService.AssertExpectations(t)
	})

	t.Run("InvalidRequestBody", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewTransactionHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/transactions", handler.Create)

		req, _ := http.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString(`{"invalid`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("UnknownType", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewTransactionHandler(logger, mockService)

		rr := postTransaction(handler, CreateTransactionRequest{
			AccountID: "player_77",
			Type:      "minted",
			Amount:    decimal.NewFromInt(50),
			Source:    "level_completion",
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidTransactionID", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewTransactionHandler(logger, mockService)

		rr := postTransaction(handler, CreateTransactionRequest{
			TransactionID: "not-a-uuid",
			AccountID:     "player_77",
			Type:          "earned",
			Amount:        decimal.NewFromInt(50),
			Source:        "level_completion",
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("ValidationErrorFromEngine", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewTransactionHandler(logger, mockService)

		mockService.On("Submit", mock.Anything, mock.Anything).
			Return(nil, false, shared.ValidationError{Field: "amount", Reason: "must be non-zero"})

		rr := postTransaction(handler, CreateTransactionRequest{
			AccountID: "player_77",
			Type:      "earned",
			Amount:    decimal.NewFromInt(1),
			Source:    "level_completion",
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("ConflictFromEngine", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewTransactionHandler(logger, mockService)

		mockService.On("Submit", mock.Anything, mock.Anything).
			Return(nil, false, shared.ConflictError{AccountID: "player_77", Attempts: 5})

		rr := postTransaction(handler, CreateTransactionRequest{
			AccountID: "player_77",
			Type:      "earned",
			Amount:    decimal.NewFromInt(50),
			Source:    "level_completion",
		})

		assert.Equal(t, http.StatusConflict, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("UnknownAccountRequiringRegistration", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewTransactionHandler(logger, mockService)

		mockService.On("Submit", mock.Anything, mock.Anything).
			Return(nil, false, shared.NotFoundError{AccountID: "ghost"})

		rr := postTransaction(handler, CreateTransactionRequest{
			AccountID: "ghost",
			Type:      "earned",
			Amount:    decimal.NewFromInt(50),
			Source:    "level_completion",
		})

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewTransactionHandler(logger, mockService)

		mockService.On("Submit", mock.Anything, mock.Anything).
			Return(nil, false, errors.New("database connection lost"))

		rr := postTransaction(handler, CreateTransactionRequest{
			AccountID: "player_77",
			Type:      "earned",
			Amount:    decimal.NewFromInt(50),
			Source:    "level_completion",
		})

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestTransactionHandler_GetByAccountID(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewTransactionHandler(logger, mockService)

		entries := []*ledger.Entry{committedEntry("player_77"), committedEntry("player_77")}
		summary := &ledger.Summary{TotalEarned: "500", TotalSpent: "125", TotalEntries: 9}
		mockService.On("History", mock.Anything, "player_77", mock.MatchedBy(func(filter ledger.HistoryFilter) bool {
			return filter.Limit == 20 && filter.Offset == 0 && filter.Type == nil
		})).Return(entries, int64(2), summary, nil)

		router := setupTestRouter()
		router.GET("/accounts/:id/transactions", handler.GetByAccountID)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/player_77/transactions", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		responseBody := decodeData[TransactionListResponse](t, rr.Body.Bytes())
		assert.Len(t, responseBody.Transactions, 2)
		require.NotNil(t, responseBody.Summary)
		assert.Equal(t, "500", responseBody.Summary.TotalEarned)

		mockService.AssertExpectations(t)
	})

	t.Run("FilterAndPagination", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewTransactionHandler(logger, mockService)

		mockService.On("History", mock.Anything, "player_77", mock.MatchedBy(func(filter ledger.HistoryFilter) bool {
			return filter.Type != nil && *filter.Type == shared.TransactionTypeSpent &&
				filter.Limit == 10 && filter.Offset == 20 &&
				filter.From != nil
		})).Return([]*ledger.Entry{}, int64(0), &ledger.Summary{}, nil)

		router := setupTestRouter()
		router.GET("/accounts/:id/transactions", handler.GetByAccountID)

		req, _ := http.NewRequest(http.MethodGet,
			"/accounts/player_77/transactions?type=spent&page=3&per_page=10&from=2026-01-01T00:00:00Z", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidTypeFilter", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewTransactionHandler(logger, mockService)

		router := setupTestRouter()
		router.GET("/accounts/:id/transactions", handler.GetByAccountID)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/player_77/transactions?type=minted", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidFromTimestamp", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewTransactionHandler(logger, mockService)

		router := setupTestRouter()
		router.GET("/accounts/:id/transactions", handler.GetByAccountID)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/player_77/transactions?from=yesterday", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewTransactionHandler(logger, mockService)

		mockService.On("History", mock.Anything, "player_77", mock.Anything).
			Return(nil, int64(0), nil, errors.New("database connection lost"))

		router := setupTestRouter()
		router.GET("/accounts/:id/transactions", handler.GetByAccountID)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/player_77/transactions", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestTransactionHandler_AttachExternalReference(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	patchReference := func(handler *TransactionHandler, id string, body any) *httptest.ResponseRecorder {
		router := setupTestRouter()
		router.PATCH("/transactions/:id/external-reference", handler.AttachExternalReference)

		jsonBody, _ := json.Marshal(body)
		req, _ := http.NewRequest(http.MethodPatch, "/transactions/"+id+"/external-reference", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewTransactionHandler(logger, mockService)

		expectedEntry := committedEntry("player_77")
		expectedEntry.ExternalReference = "0xabc123"
		mockService.On("AttachExternalReference", mock.Anything, expectedEntry.TransactionID, "0xabc123").
			Return(expectedEntry, nil)

		rr := patchReference(handler, expectedEntry.TransactionID.String(),
			AttachReferenceRequest{ExternalReference: "0xabc123"})

		assert.Equal(t, http.StatusOK, rr.Code)

		responseBody := decodeData[TransactionResponse](t, rr.Body.Bytes())
		assert.Equal(t, "0xabc123", responseBody.ExternalReference)

		mockService.AssertExpectations(t)
	})

	t.Run("InvalidUUID", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewTransactionHandler(logger, mockService)

		rr := patchReference(handler, "not-a-uuid", AttachReferenceRequest{ExternalReference: "0xabc123"})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("AlreadySet", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewTransactionHandler(logger, mockService)

		transactionID := uuid.New()
		mockService.On("AttachExternalReference", mock.Anything, transactionID, "0xabc123").
			Return(nil, ledger.ErrReferenceAlreadySet{TransactionID: transactionID})

		rr := patchReference(handler, transactionID.String(), AttachReferenceRequest{ExternalReference: "0xabc123"})

		assert.Equal(t, http.StatusConflict, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("EntryNotFound", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewTransactionHandler(logger, mockService)

		transactionID := uuid.New()
		mockService.On("AttachExternalReference", mock.Anything, transactionID, "0xabc123").
			Return(nil, ledger.ErrEntryNotFound{TransactionID: transactionID})

		rr := patchReference(handler, transactionID.String(), AttachReferenceRequest{ExternalReference: "0xabc123"})

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockService.AssertExpectations(t)
	})
}
