package engine

import (
	"github.com/admiral-games/token-ledger/internal/domain/shared"
)

// validateRequest checks the closed set of request fields. Amounts must be
// positive except for transfers, which carry their own sign but may not be
// zero.
func validateRequest(req *shared.TransactionRequest) error {
	if req.AccountID == "" {
		return shared.ValidationError{Field: "account_id", Reason: "must not be empty"}
	}
	if !req.Type.IsValid() {
		return shared.ValidationError{Field: "type", Reason: "unknown transaction type " + string(req.Type)}
	}
	if !req.Source.IsValid() {
		return shared.ValidationError{Field: "source", Reason: "unknown source " + string(req.Source)}
	}
	if req.Amount.IsZero() {
		return shared.ValidationError{Field: "amount", Reason: "must be non-zero"}
	}
	if req.Amount.IsNegative() && req.Type != shared.TransactionTypeTransferred {
		return shared.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	return nil
}
