package account

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admiral-games/token-ledger/internal/domain/shared"
)

func TestNew(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		beforeCreation := time.Now().UTC()
		acc, err := New("player_77", decimal.NewFromInt(100))
		afterCreation := time.Now().UTC()

		require.NoError(t, err)
		require.NotNil(t, acc)

		assert.Equal(t, "player_77", acc.ID)
		assert.True(t, acc.Balance.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, 1, acc.Version, "Initial version should be 1")
		assert.WithinDuration(t, beforeCreation, acc.CreatedAt, afterCreation.Sub(beforeCreation)+time.Millisecond)
		assert.Equal(t, acc.CreatedAt, acc.LastUpdated, "CreatedAt and LastUpdated should match on creation")
	})

	t.Run("ZeroBalanceAllowed", func(t *testing.T) {
		acc, err := New("player_77", decimal.Zero)
		require.NoError(t, err)
		assert.True(t, acc.Balance.IsZero())
	})

	t.Run("EmptyID", func(t *testing.T) {
		acc, err := New("", decimal.NewFromInt(100))
		assert.ErrorIs(t, err, ErrEmptyAccountID)
		assert.Nil(t, acc)
	})

	t.Run("NegativeInitialBalance", func(t *testing.T) {
		acc, err := New("player_77", decimal.NewFromInt(-1))
		assert.ErrorIs(t, err, ErrNegativeBalance)
		assert.Nil(t, acc)
	})
}

func TestAccount_Apply(t *testing.T) {
	newAccount := func(balance int64) *Account {
		return &Account{
			ID:          "player_77",
			Balance:     decimal.NewFromInt(balance),
			Version:     1,
			CreatedAt:   time.Now().UTC().Add(-time.Hour),
			LastUpdated: time.Now().UTC().Add(-time.Hour),
		}
	}

	tests := []struct {
		name      string
		balance   int64
		txType    shared.TransactionType
		amount    int64
		wantAfter int64
		wantErr   error
	}{
		{name: "EarnedCredits", balance: 100, txType: shared.TransactionTypeEarned, amount: 50, wantAfter: 150},
		{name: "BonusCredits", balance: 0, txType: shared.TransactionTypeBonus, amount: 25, wantAfter: 25},
		{name: "SpentDebits", balance: 100, txType: shared.TransactionTypeSpent, amount: 40, wantAfter: 60},
		{name: "PenaltyDebits", balance: 100, txType: shared.TransactionTypePenalty, amount: 10, wantAfter: 90},
		{name: "DebitClampsAtZero", balance: 100, txType: shared.TransactionTypeSpent, amount: 150, wantAfter: 0},
		{name: "PositiveTransferCredits", balance: 100, txType: shared.TransactionTypeTransferred, amount: 30, wantAfter: 130},
		{name: "NegativeTransferDebits", balance: 100, txType: shared.TransactionTypeTransferred, amount: -40, wantAfter: 60},
		{name: "NegativeTransferClampsAtZero", balance: 100, txType: shared.TransactionTypeTransferred, amount: -500, wantAfter: 0},
		{name: "ZeroAmountRejected", balance: 100, txType: shared.TransactionTypeEarned, amount: 0, wantErr: ErrInvalidAmount},
		{name: "NegativeNonTransferRejected", balance: 100, txType: shared.TransactionTypeSpent, amount: -40, wantErr: ErrInvalidAmount},
		{name: "UnknownTypeRejected", balance: 100, txType: shared.TransactionType("minted"), amount: 40, wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := newAccount(tt.balance)

			before, after, err := acc.Apply(tt.txType, decimal.NewFromInt(tt.amount))

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, acc.Balance.Equal(decimal.NewFromInt(tt.balance)), "balance must be untouched on error")
				assert.Equal(t, 1, acc.Version, "version must be untouched on error")
				return
			}

			require.NoError(t, err)
			assert.True(t, before.Equal(decimal.NewFromInt(tt.balance)))
			assert.True(t, after.Equal(decimal.NewFromInt(tt.wantAfter)))
			assert.True(t, acc.Balance.Equal(decimal.NewFromInt(tt.wantAfter)))
			assert.Equal(t, 2, acc.Version, "each applied transition bumps the version")
		})
	}

	t.Run("LastUpdatedAdvances", func(t *testing.T) {
		acc := newAccount(100)
		previous := acc.LastUpdated

		_, _, err := acc.Apply(shared.TransactionTypeEarned, decimal.NewFromInt(1))

		require.NoError(t, err)
		assert.True(t, acc.LastUpdated.After(previous))
	})
}
