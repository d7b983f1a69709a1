// Package mongo implements the downstream ledger archive: a non-authoritative
// read model fed by the change notifier, serving reporting queries that would
// otherwise scan the authoritative Postgres ledger.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/admiral-games/token-ledger/internal/domain/ledger"
)

const (
	// ArchiveCollectionName is the name of the archive collection
	ArchiveCollectionName = "ledger_archive"
)

// ArchivedEntry is the archive document. Amounts are stored as float64 for
// aggregation; the authoritative decimals stay in Postgres.
type ArchivedEntry struct {
	TransactionID string    `bson:"transaction_id"`
	AccountID     string    `bson:"account_id"`
	Type          string    `bson:"type"`
	Amount        float64   `bson:"amount"`
	BalanceBefore float64   `bson:"balance_before"`
	BalanceAfter  float64   `bson:"balance_after"`
	Source        string    `bson:"source"`
	SourceID      string    `bson:"source_id,omitempty"`
	Description   string    `bson:"description,omitempty"`
	CreatedAt     time.Time `bson:"created_at"`
	ArchivedAt    time.Time `bson:"archived_at"`
}

// TokenStats aggregates circulation-wide transaction totals
type TokenStats struct {
	TotalTransactions int64   `bson:"total_transactions" json:"total_transactions"`
	TotalEarned       float64 `bson:"total_earned" json:"total_earned"`
	TotalSpent        float64 `bson:"total_spent" json:"total_spent"`
	UniqueAccounts    int64   `bson:"unique_accounts" json:"unique_accounts"`
}

// DailyVolume is one day's transaction count and token volume
type DailyVolume struct {
	Date             string  `bson:"_id" json:"date"`
	TransactionCount int64   `bson:"transaction_count" json:"transaction_count"`
	Volume           float64 `bson:"volume" json:"volume"`
}

// ArchiveRepository persists archived entries and serves stats queries
type ArchiveRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewArchiveRepository creates a new MongoDB archive repository
func NewArchiveRepository(logger *slog.Logger, db *mongo.Database) *ArchiveRepository {
	return &ArchiveRepository{
		db:     db,
		logger: logger,
	}
}

// Archive upserts a ledger entry snapshot. Upserting on transaction_id keeps
// at-least-once redelivery idempotent.
func (r *ArchiveRepository) Archive(ctx context.Context, entry *ledger.Entry) error {
	collection := r.db.Collection(ArchiveCollectionName)

	doc := ArchivedEntry{
		TransactionID: entry.TransactionID.String(),
		AccountID:     entry.AccountID,
		Type:          string(entry.Type),
		Amount:        entry.Amount.InexactFloat64(),
		BalanceBefore: entry.BalanceBefore.InexactFloat64(),
		BalanceAfter:  entry.BalanceAfter.InexactFloat64(),
		Source:        string(entry.Source),
		SourceID:      entry.SourceID,
		Description:   entry.Description,
		CreatedAt:     entry.CreatedAt,
		ArchivedAt:    time.Now().UTC(),
	}

	filter := bson.M{"transaction_id": doc.TransactionID}
	opts := options.Replace().SetUpsert(true)

	_, err := collection.ReplaceOne(ctx, filter, doc, opts)
	if err != nil {
		r.logger.Error("Failed to archive ledger entry",
			"transaction_id", doc.TransactionID,
			"error", err)
		return fmt.Errorf("failed to archive ledger entry: %w", err)
	}

	return nil
}

// TokenStats aggregates transaction totals across all accounts
func (r *ArchiveRepository) TokenStats(ctx context.Context) (*TokenStats, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total_transactions", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "total_earned", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{
					bson.D{{Key: "$in", Value: bson.A{"$type", bson.A{"earned", "bonus"}}}},
					"$amount",
					0,
				}},
			}}}},
			{Key: "total_spent", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{
					bson.D{{Key: "$in", Value: bson.A{"$type", bson.A{"spent", "penalty"}}}},
					"$amount",
					0,
				}},
			}}}},
			{Key: "accounts", Value: bson.D{{Key: "$addToSet", Value: "$account_id"}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "total_transactions", Value: 1},
			{Key: "total_earned", Value: 1},
			{Key: "total_spent", Value: 1},
			{Key: "unique_accounts", Value: bson.D{{Key: "$size", Value: "$accounts"}}},
		}}},
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Error("Failed to aggregate token stats", "error", err)
		return nil, fmt.Errorf("failed to aggregate token stats: %w", err)
	}
	defer cursor.Close(ctx)

	var results []TokenStats
	if err := cursor.All(ctx, &results); err != nil {
		r.logger.Error("Failed to decode token stats", "error", err)
		return nil, fmt.Errorf("failed to decode token stats: %w", err)
	}

	if len(results) == 0 {
		return &TokenStats{}, nil
	}
	return &results[0], nil
}

// DailyVolume returns per-day transaction counts and volume for the trailing
// window, newest first.
func (r *ArchiveRepository) DailyVolume(ctx context.Context, days int) ([]DailyVolume, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	since := time.Now().UTC().AddDate(0, 0, -days)
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "created_at", Value: bson.D{{Key: "$gte", Value: since}}},
		}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$dateToString", Value: bson.D{
				{Key: "format", Value: "%Y-%m-%d"},
				{Key: "date", Value: "$created_at"},
			}}}},
			{Key: "transaction_count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "volume", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Error("Failed to aggregate daily volume", "error", err)
		return nil, fmt.Errorf("failed to aggregate daily volume: %w", err)
	}
	defer cursor.Close(ctx)

	var results []DailyVolume
	if err := cursor.All(ctx, &results); err != nil {
		r.logger.Error("Failed to decode daily volume", "error", err)
		return nil, fmt.Errorf("failed to decode daily volume: %w", err)
	}

	return results, nil
}
