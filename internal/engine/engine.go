// Package engine implements the ledger engine: it turns a stream of
// transaction requests into strictly ordered, idempotent, atomically applied
// balance transitions backed by an append-only log.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/admiral-games/token-ledger/internal/config"
	"github.com/admiral-games/token-ledger/internal/domain/account"
	"github.com/admiral-games/token-ledger/internal/domain/ledger"
	"github.com/admiral-games/token-ledger/internal/domain/outbox"
	"github.com/admiral-games/token-ledger/internal/domain/shared"
	"github.com/admiral-games/token-ledger/internal/platform/metrics"
	"github.com/admiral-games/token-ledger/internal/platform/persistence"
)

// errRetry signals a lost same-account race; the submit loop re-reads fresh
// state and tries again.
var errRetry = errors.New("retryable write conflict")

// Engine orchestrates balance transitions. All three repositories write
// through the same transaction, so an entry, its account update, and its
// notification row commit or roll back as one unit.
type Engine struct {
	db          persistence.TxBeginner
	accountRepo account.Repository
	ledgerRepo  ledger.Repository
	outboxRepo  outbox.Repository
	cfg         config.LedgerConfig
	logger      *slog.Logger
}

// New creates a ledger engine
func New(
	db persistence.TxBeginner,
	accountRepo account.Repository,
	ledgerRepo ledger.Repository,
	outboxRepo outbox.Repository,
	cfg config.LedgerConfig,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		db:          db,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		outboxRepo:  outboxRepo,
		cfg:         cfg,
		logger:      logger,
	}
}

// Submit applies one transaction request and returns the committed entry.
// Replaying an already committed transaction id returns the original entry
// unchanged with replayed set, which makes Submit safe to retry after
// timeouts or crashes.
func (e *Engine) Submit(ctx context.Context, req *shared.TransactionRequest) (entry *ledger.Entry, replayed bool, err error) {
	if req.TransactionID == uuid.Nil {
		req.TransactionID = uuid.New()
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now().UTC()
	}

	logger := e.logger
	if req.CorrelationID != "" {
		logger = e.logger.With("correlation_id", req.CorrelationID)
	}

	if err := validateRequest(req); err != nil {
		logger.Warn("Rejected transaction request",
			"transaction_id", req.TransactionID.String(),
			"account_id", req.AccountID,
			"error", err,
		)
		metrics.TransactionRejected("validation")
		return nil, false, err
	}

	// Fast-path idempotency check. The storage uniqueness constraint inside
	// applyOnce remains the authoritative guard against concurrent replays.
	existing, err := e.ledgerRepo.GetByTransactionID(ctx, req.TransactionID)
	if err != nil && !errors.Is(err, ledger.ErrEntryNotFound{}) {
		return nil, false, shared.SystemError{Op: "idempotency check", Err: err}
	}
	if existing != nil {
		entry, err = e.replay(logger, req, existing)
		return entry, err == nil, err
	}

	var attempt int
	for attempt = 1; attempt <= e.cfg.MaxRetries; attempt++ {
		entry, err := e.applyOnce(ctx, logger, req)
		if err == nil {
			logger.Info("Transaction committed",
				"transaction_id", entry.TransactionID.String(),
				"account_id", entry.AccountID,
				"type", string(entry.Type),
				"balance_before", entry.BalanceBefore.String(),
				"balance_after", entry.BalanceAfter.String(),
			)
			metrics.TransactionCommitted(string(entry.Type), string(entry.Source))
			return entry, false, nil
		}

		if errors.Is(err, errRetry) {
			metrics.WriteConflict()
			logger.Warn("Write conflict, retrying with fresh state",
				"transaction_id", req.TransactionID.String(),
				"account_id", req.AccountID,
				"attempt", attempt,
			)
			if backoffErr := e.backoff(ctx, attempt); backoffErr != nil {
				return nil, false, backoffErr
			}
			continue
		}

		// A concurrent submit with the same id may have won the race after
		// the fast-path check; that is an idempotent replay, not a failure.
		if errors.Is(err, ledger.ErrDuplicateEntry{}) {
			winner, getErr := e.ledgerRepo.GetByTransactionID(ctx, req.TransactionID)
			if getErr != nil {
				return nil, false, shared.SystemError{Op: "duplicate resolution", Err: getErr}
			}
			entry, err = e.replay(logger, req, winner)
			return entry, err == nil, err
		}

		return nil, false, err
	}

	metrics.TransactionRejected("conflict")
	return nil, false, shared.ConflictError{AccountID: req.AccountID, Attempts: e.cfg.MaxRetries}
}

// applyOnce runs steps 3-6 of the submit contract inside one transaction:
// resolve and lock the account, compute the delta, write entry + account +
// outbox row, commit.
func (e *Engine) applyOnce(ctx context.Context, logger *slog.Logger, req *shared.TransactionRequest) (entry *ledger.Entry, err error) {
	tx, err := e.db.Begin(ctx)
	if err != nil {
		return nil, shared.SystemError{Op: "begin transaction", Err: err}
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, context.Canceled) {
				logger.Error("Failed to rollback transaction",
					"transaction_id", req.TransactionID.String(),
					"rollback_error", rbErr,
					"original_error", err,
				)
			}
		}
	}()

	accountRepoTx := e.accountRepo.WithTx(tx)
	ledgerRepoTx := e.ledgerRepo.WithTx(tx)
	outboxRepoTx := e.outboxRepo.WithTx(tx)

	acc, err := e.resolveAccount(ctx, logger, accountRepoTx, req)
	if err != nil {
		return nil, err
	}

	before, after, err := acc.Apply(req.Type, req.Amount)
	if err != nil {
		return nil, shared.ValidationError{Field: "amount", Reason: err.Error()}
	}

	entry = ledger.NewEntry(req, before, after)
	if err = ledgerRepoTx.Create(ctx, entry); err != nil {
		if errors.Is(err, ledger.ErrDuplicateEntry{}) {
			return nil, err
		}
		return nil, shared.SystemError{Op: "ledger insert", Err: err}
	}

	if err = accountRepoTx.Update(ctx, acc); err != nil {
		if errors.Is(err, account.ErrConcurrentModification{}) {
			return nil, errRetry
		}
		return nil, shared.SystemError{Op: "account update", Err: err}
	}

	event := &shared.BalanceEvent{
		TransactionID: entry.TransactionID,
		AccountID:     entry.AccountID,
		Balance:       after,
		CorrelationID: req.CorrelationID,
		OccurredAt:    entry.CreatedAt,
	}
	message, err := outbox.NewMessage(event)
	if err != nil {
		return nil, shared.SystemError{Op: "outbox payload", Err: err}
	}
	if err = outboxRepoTx.Create(ctx, message); err != nil {
		return nil, shared.SystemError{Op: "outbox insert", Err: err}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, shared.SystemError{Op: "commit", Err: err}
	}

	return entry, nil
}

// resolveAccount locks the target account, creating it with a zero balance
// on first touch unless pre-registration is required.
func (e *Engine) resolveAccount(ctx context.Context, logger *slog.Logger, repo account.Repository, req *shared.TransactionRequest) (*account.Account, error) {
	acc, err := repo.LockForUpdate(ctx, req.AccountID)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, account.ErrAccountNotFound{}) {
		return nil, shared.SystemError{Op: "account lock", Err: err}
	}

	if e.cfg.RequireRegistration {
		metrics.TransactionRejected("not_found")
		return nil, shared.NotFoundError{AccountID: req.AccountID}
	}

	acc, err = account.New(req.AccountID, decimal.Zero)
	if err != nil {
		return nil, shared.ValidationError{Field: "account_id", Reason: err.Error()}
	}
	if err = repo.Create(ctx, acc); err != nil {
		if errors.Is(err, account.ErrDuplicateAccount{}) {
			// Another first-touch writer created the row between lock and
			// insert; start over against the committed state.
			return nil, errRetry
		}
		return nil, shared.SystemError{Op: "account create", Err: err}
	}

	logger.Info("Created account on first touch", "account_id", acc.ID)
	return acc, nil
}

// replay returns the already committed entry for an idempotent resubmission
func (e *Engine) replay(logger *slog.Logger, req *shared.TransactionRequest, existing *ledger.Entry) (*ledger.Entry, error) {
	if existing.AccountID != req.AccountID {
		metrics.TransactionRejected("validation")
		return nil, shared.ValidationError{
			Field:  "transaction_id",
			Reason: fmt.Sprintf("transaction %s already belongs to another account", req.TransactionID),
		}
	}
	logger.Info("Idempotent replay, returning committed entry",
		"transaction_id", existing.TransactionID.String(),
		"account_id", existing.AccountID,
	)
	metrics.IdempotentReplay()
	return existing, nil
}

// backoff sleeps the exponential delay for the given attempt, honoring
// context cancellation.
func (e *Engine) backoff(ctx context.Context, attempt int) error {
	delay := e.cfg.RetryBackoff << (attempt - 1)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return shared.SystemError{Op: "submit", Err: ctx.Err()}
	case <-timer.C:
		return nil
	}
}
