package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/admiral-games/token-ledger/internal/domain/account"
	"github.com/admiral-games/token-ledger/internal/domain/ledger"
	"github.com/admiral-games/token-ledger/internal/domain/shared"
)

// respondDomainError maps domain errors onto HTTP statuses: invalid input
// is 400, unknown resources 404, lost races and duplicates 409, everything
// else a logged 500.
func respondDomainError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, shared.ValidationError{}),
		errors.Is(err, account.ErrEmptyAccountID),
		errors.Is(err, account.ErrNegativeBalance):
		RespondBadRequest(c, err.Error())

	case errors.Is(err, shared.NotFoundError{}),
		errors.Is(err, account.ErrAccountNotFound{}),
		errors.Is(err, ledger.ErrEntryNotFound{}):
		RespondNotFound(c, err.Error())

	case errors.Is(err, shared.ConflictError{}),
		errors.Is(err, account.ErrDuplicateAccount{}),
		errors.Is(err, ledger.ErrReferenceAlreadySet{}):
		RespondConflict(c, err.Error())

	default:
		logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		RespondInternalError(c)
	}
}
