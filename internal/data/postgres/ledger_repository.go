package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/admiral-games/token-ledger/internal/domain/ledger"
	"github.com/admiral-games/token-ledger/internal/domain/shared"
	"github.com/admiral-games/token-ledger/internal/platform/persistence"
)

// LedgerRepository implements the ledger.Repository interface for PostgreSQL
type LedgerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLedgerRepository creates a new PostgreSQL ledger repository
func NewLedgerRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &LedgerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *LedgerRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &LedgerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const entryColumns = `transaction_id, account_id, type, amount, balance_before, balance_after,
		source, source_id, description, metadata, external_reference, correlation_id,
		tombstoned_at, created_at`

// Create appends the entry. The primary key on transaction_id makes the
// idempotency guarantee a storage-level constraint: a concurrent duplicate
// surfaces as ErrDuplicateEntry, never as a second row.
func (r *LedgerRepository) Create(ctx context.Context, entry *ledger.Entry) error {
	query := `
		INSERT INTO ledger_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.querier.Exec(ctx, query,
		entry.TransactionID,
		entry.AccountID,
		entry.Type,
		entry.Amount,
		entry.BalanceBefore,
		entry.BalanceAfter,
		entry.Source,
		nullableString(entry.SourceID),
		nullableString(entry.Description),
		entry.Metadata,
		nullableString(entry.ExternalReference),
		nullableString(entry.CorrelationID),
		entry.TombstonedAt,
		entry.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ledger.ErrDuplicateEntry{TransactionID: entry.TransactionID}
		}
		r.logger.Error("Failed to create ledger entry",
			"transaction_id", entry.TransactionID.String(),
			"error", err)
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}

	return nil
}

// GetByTransactionID retrieves an entry by its idempotency key
func (r *LedgerRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*ledger.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE transaction_id = $1
	`

	entry, err := r.scanEntry(r.querier.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrEntryNotFound{TransactionID: transactionID}
		}
		r.logger.Error("Failed to get ledger entry",
			"transaction_id", transactionID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	return entry, nil
}

// ListByAccount returns entries newest first. The filter is a closed set of
// typed predicates bound as nullable parameters; the SQL itself is static.
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID string, filter ledger.HistoryFilter) ([]*ledger.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE account_id = $1
		  AND ($2::text IS NULL OR type = $2)
		  AND ($3::text IS NULL OR source = $3)
		  AND ($4::timestamptz IS NULL OR created_at >= $4)
		  AND ($5::timestamptz IS NULL OR created_at <= $5)
		ORDER BY created_at DESC
		LIMIT $6 OFFSET $7
	`

	rows, err := r.querier.Query(ctx, query,
		accountID,
		typeParam(filter.Type),
		sourceParam(filter.Source),
		filter.From,
		filter.To,
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		r.logger.Error("Failed to list ledger entries", "account_id", accountID, "error", err)
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*ledger.Entry
	for rows.Next() {
		entry, err := r.scanEntry(rows)
		if err != nil {
			r.logger.Error("Failed to scan ledger entry", "account_id", accountID, "error", err)
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over ledger entries", "account_id", accountID, "error", err)
		return nil, fmt.Errorf("error iterating over ledger entries: %w", err)
	}

	return entries, nil
}

// CountByAccount counts entries matching the filter
func (r *LedgerRepository) CountByAccount(ctx context.Context, accountID string, filter ledger.HistoryFilter) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM ledger_entries
		WHERE account_id = $1
		  AND ($2::text IS NULL OR type = $2)
		  AND ($3::text IS NULL OR source = $3)
		  AND ($4::timestamptz IS NULL OR created_at >= $4)
		  AND ($5::timestamptz IS NULL OR created_at <= $5)
	`

	var count int64
	err := r.querier.QueryRow(ctx, query,
		accountID,
		typeParam(filter.Type),
		sourceParam(filter.Source),
		filter.From,
		filter.To,
	).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count ledger entries", "account_id", accountID, "error", err)
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	return count, nil
}

// SummarizeByAccount totals the account's earned and spent magnitudes
func (r *LedgerRepository) SummarizeByAccount(ctx context.Context, accountID string) (*ledger.Summary, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN type IN ('earned', 'bonus') THEN amount ELSE 0 END), 0)::text,
			COALESCE(SUM(CASE WHEN type IN ('spent', 'penalty') THEN amount ELSE 0 END), 0)::text,
			COUNT(*)
		FROM ledger_entries
		WHERE account_id = $1
	`

	var summary ledger.Summary
	err := r.querier.QueryRow(ctx, query, accountID).Scan(
		&summary.TotalEarned,
		&summary.TotalSpent,
		&summary.TotalEntries,
	)
	if err != nil {
		r.logger.Error("Failed to summarize ledger entries", "account_id", accountID, "error", err)
		return nil, fmt.Errorf("failed to summarize ledger entries: %w", err)
	}

	return &summary, nil
}

// AttachExternalReference records the on-chain hash for a committed entry.
// The only-if-null predicate keeps the annotation a one-shot operation.
func (r *LedgerRepository) AttachExternalReference(ctx context.Context, transactionID uuid.UUID, reference string) error {
	query := `
		UPDATE ledger_entries
		SET external_reference = $1
		WHERE transaction_id = $2 AND external_reference IS NULL
	`

	result, err := r.querier.Exec(ctx, query, reference, transactionID)
	if err != nil {
		r.logger.Error("Failed to attach external reference",
			"transaction_id", transactionID.String(),
			"error", err)
		return fmt.Errorf("failed to attach external reference: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish a missing entry from one already annotated
		if _, err := r.GetByTransactionID(ctx, transactionID); err != nil {
			return err
		}
		return ledger.ErrReferenceAlreadySet{TransactionID: transactionID}
	}

	return nil
}

// Tombstone flags the account's history as belonging to a deleted account
func (r *LedgerRepository) Tombstone(ctx context.Context, accountID string) error {
	query := `
		UPDATE ledger_entries
		SET tombstoned_at = $1
		WHERE account_id = $2 AND tombstoned_at IS NULL
	`

	_, err := r.querier.Exec(ctx, query, time.Now().UTC(), accountID)
	if err != nil {
		r.logger.Error("Failed to tombstone ledger entries", "account_id", accountID, "error", err)
		return fmt.Errorf("failed to tombstone ledger entries: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *LedgerRepository) scanEntry(row rowScanner) (*ledger.Entry, error) {
	var (
		entry       ledger.Entry
		sourceID    *string
		description *string
		externalRef *string
		correlation *string
	)
	err := row.Scan(
		&entry.TransactionID,
		&entry.AccountID,
		&entry.Type,
		&entry.Amount,
		&entry.BalanceBefore,
		&entry.BalanceAfter,
		&entry.Source,
		&sourceID,
		&description,
		&entry.Metadata,
		&externalRef,
		&correlation,
		&entry.TombstonedAt,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.SourceID = derefString(sourceID)
	entry.Description = derefString(description)
	entry.ExternalReference = derefString(externalRef)
	entry.CorrelationID = derefString(correlation)
	return &entry, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func typeParam(t *shared.TransactionType) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}

func sourceParam(s *shared.Source) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}
