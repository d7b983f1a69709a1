package shared

import (
	"fmt"
	"strconv"
)

// ValidationError indicates a malformed request: non-positive amount,
// unknown type or source, or a transaction id reused across accounts.
// Permanent; never retried by the engine.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// Is matches any ValidationError when the target carries no field
func (e ValidationError) Is(target error) bool {
	t, ok := target.(ValidationError)
	if !ok {
		return false
	}
	return t.Field == "" || t.Field == e.Field
}

// NotFoundError indicates an unknown account while pre-registration is
// mandatory. Permanent.
type NotFoundError struct {
	AccountID string
}

func (e NotFoundError) Error() string {
	return "account not found: " + e.AccountID
}

func (e NotFoundError) Is(target error) bool {
	t, ok := target.(NotFoundError)
	if !ok {
		return false
	}
	return t.AccountID == "" || t.AccountID == e.AccountID
}

// ConflictError indicates same-account write contention that outlived the
// retry budget. Transient; the caller may resubmit with the same
// transaction id.
type ConflictError struct {
	AccountID string
	Attempts  int
}

func (e ConflictError) Error() string {
	return "write conflict on account " + e.AccountID + " after " + strconv.Itoa(e.Attempts) + " attempts"
}

func (e ConflictError) Is(target error) bool {
	t, ok := target.(ConflictError)
	if !ok {
		return false
	}
	return t.AccountID == "" || t.AccountID == e.AccountID
}

// SystemError wraps a storage or I/O failure. Transient; safely retryable
// with the same transaction id.
type SystemError struct {
	Op  string
	Err error
}

func (e SystemError) Error() string {
	return fmt.Sprintf("system error during %s: %v", e.Op, e.Err)
}

func (e SystemError) Unwrap() error {
	return e.Err
}

func (e SystemError) Is(target error) bool {
	t, ok := target.(SystemError)
	if !ok {
		return false
	}
	return t.Op == "" || t.Op == e.Op
}
