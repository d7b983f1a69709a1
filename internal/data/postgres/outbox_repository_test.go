package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admiral-games/token-ledger/internal/domain/outbox"
)

func TestOutboxRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}

	message := &outbox.Message{
		TransactionID: uuid.New(),
		AccountID:     "player_77",
		Payload:       json.RawMessage(`{"balance":"150"}`),
		Status:        outbox.StatusPending,
		Attempts:      0,
		CreatedAt:     time.Now(),
	}

	query := `
		INSERT INTO notification_outbox \(transaction_id, account_id, payload, status, attempts, created_at\)
		VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\)
		RETURNING id
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(message.TransactionID, message.AccountID, message.Payload, message.Status, message.Attempts, message.CreatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

		err := repo.Create(ctx, message)
		assert.NoError(t, err)
		assert.Equal(t, int64(7), message.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		expectedErr := errors.New("db error")
		mock.ExpectQuery(query).
			WithArgs(message.TransactionID, message.AccountID, message.Payload, message.Status, message.Attempts, message.CreatedAt).
			WillReturnError(expectedErr)

		err := repo.Create(ctx, message)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create outbox message")
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_GetPending(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}
	limit := 10

	query := `
		SELECT id, transaction_id, account_id, payload, status, attempts, created_at, last_attempt_at
		FROM notification_outbox
		WHERE status = \$1
		ORDER BY created_at ASC
		LIMIT \$2
	`
	columns := []string{"id", "transaction_id", "account_id", "payload", "status", "attempts", "created_at", "last_attempt_at"}

	t.Run("success", func(t *testing.T) {
		now := time.Now()
		txID := uuid.New()
		rows := pgxmock.NewRows(columns).
			AddRow(int64(1), txID, "player_77", json.RawMessage(`{"balance":"150"}`), outbox.StatusPending, 0, now, (*time.Time)(nil)).
			AddRow(int64(2), uuid.New(), "player_88", json.RawMessage(`{"balance":"10"}`), outbox.StatusPending, 2, now, &now)

		mock.ExpectQuery(query).WithArgs(outbox.StatusPending, limit).WillReturnRows(rows)

		messages, err := repo.GetPending(ctx, limit)
		assert.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, int64(1), messages[0].ID)
		assert.Equal(t, txID, messages[0].TransactionID)
		assert.Nil(t, messages[0].LastAttemptAt)
		assert.Equal(t, 2, messages[1].Attempts)
		assert.NotNil(t, messages[1].LastAttemptAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(outbox.StatusPending, limit).WillReturnRows(pgxmock.NewRows(columns))

		messages, err := repo.GetPending(ctx, limit)
		assert.NoError(t, err)
		assert.Empty(t, messages)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("pending db error")
		mock.ExpectQuery(query).WithArgs(outbox.StatusPending, limit).WillReturnError(dbErr)

		messages, err := repo.GetPending(ctx, limit)
		assert.Error(t, err)
		assert.Nil(t, messages)
		assert.Contains(t, err.Error(), "failed to get pending outbox messages")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}
	messageID := int64(7)

	query := `
		UPDATE notification_outbox
		SET status = \$1, last_attempt_at = \$2
		WHERE id = \$3
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(outbox.StatusProcessed, pgxmock.AnyArg(), messageID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.UpdateStatus(ctx, messageID, outbox.StatusProcessed)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(outbox.StatusProcessed, pgxmock.AnyArg(), messageID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateStatus(ctx, messageID, outbox.StatusProcessed)
		assert.Error(t, err)
		var notFoundErr outbox.ErrMessageNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, messageID, notFoundErr.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("status db error")
		mock.ExpectExec(query).
			WithArgs(outbox.StatusFailedToPublish, pgxmock.AnyArg(), messageID).
			WillReturnError(dbErr)

		err := repo.UpdateStatus(ctx, messageID, outbox.StatusFailedToPublish)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to update outbox message status")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_IncrementAttempts(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}
	messageID := int64(7)

	query := `
		UPDATE notification_outbox
		SET attempts = attempts \+ 1, last_attempt_at = \$1
		WHERE id = \$2
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(pgxmock.AnyArg(), messageID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.IncrementAttempts(ctx, messageID)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(pgxmock.AnyArg(), messageID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.IncrementAttempts(ctx, messageID)
		assert.Error(t, err)
		var notFoundErr outbox.ErrMessageNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_Delete(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}
	messageID := int64(7)

	query := `
		DELETE FROM notification_outbox
		WHERE id = \$1
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(messageID).WillReturnResult(pgxmock.NewResult("DELETE", 1))

		err := repo.Delete(ctx, messageID)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(messageID).WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err := repo.Delete(ctx, messageID)
		assert.Error(t, err)
		var notFoundErr outbox.ErrMessageNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_WithTx(t *testing.T) {
	logger := newTestLogger()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	originalRepo := &OutboxRepository{querier: mockPool, logger: logger}

	mockPool.ExpectBegin()
	pgxTx, err := mockPool.Begin(context.Background())
	require.NoError(t, err)

	txRepo := originalRepo.WithTx(pgxTx)

	assert.NotNil(t, txRepo)
	assert.Equal(t, pgxTx, txRepo.(*OutboxRepository).querier, "Querier in new repo should be the transaction")

	assert.NoError(t, mockPool.ExpectationsWereMet())
}
