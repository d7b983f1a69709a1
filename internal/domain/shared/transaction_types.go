package shared

// TransactionType defines the kind of balance transition a request asks for
type TransactionType string

const (
	TransactionTypeEarned      TransactionType = "earned"
	TransactionTypeBonus       TransactionType = "bonus"
	TransactionTypeSpent       TransactionType = "spent"
	TransactionTypePenalty     TransactionType = "penalty"
	TransactionTypeTransferred TransactionType = "transferred"
)

// IsValid reports whether the type is one of the enumerated kinds
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeEarned, TransactionTypeBonus, TransactionTypeSpent,
		TransactionTypePenalty, TransactionTypeTransferred:
		return true
	}
	return false
}

// IsCredit reports whether the type adds to the balance unconditionally
func (t TransactionType) IsCredit() bool {
	return t == TransactionTypeEarned || t == TransactionTypeBonus
}

// IsDebit reports whether the type subtracts from the balance, clamped at zero
func (t TransactionType) IsDebit() bool {
	return t == TransactionTypeSpent || t == TransactionTypePenalty
}

// Source defines the business reason behind a transaction
type Source string

const (
	SourceLevelCompletion Source = "level_completion"
	SourceAchievement     Source = "achievement"
	SourceDailyBonus      Source = "daily_bonus"
	SourceReferral        Source = "referral"
	SourcePurchase        Source = "purchase"
	SourceAdmin           Source = "admin"
	SourcePenalty         Source = "penalty"
)

// IsValid reports whether the source is one of the enumerated reasons
func (s Source) IsValid() bool {
	switch s {
	case SourceLevelCompletion, SourceAchievement, SourceDailyBonus,
		SourceReferral, SourcePurchase, SourceAdmin, SourcePenalty:
		return true
	}
	return false
}
