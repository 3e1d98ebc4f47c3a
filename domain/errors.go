package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConnection        = errors.New("store unreachable")
	ErrValidation        = errors.New("validation failed")
	ErrTransactionFailed = errors.New("transaction failed")
	ErrLookupMiss        = errors.New("item no longer in inventory")
	ErrNotFound          = errors.New("not found")

	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Invalid builds a validation error for one input field.
func Invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, reason)
}

// LookupMissError names the cart line whose medicine could not be resolved.
type LookupMissError struct {
	Name string
}

func (e *LookupMissError) Error() string {
	return fmt.Sprintf("%s: %q", ErrLookupMiss, e.Name)
}

func (e *LookupMissError) Unwrap() error { return ErrLookupMiss }

// TransactionError reports a rolled back sale. It matches both
// ErrTransactionFailed and the cause that triggered the rollback.
type TransactionError struct {
	BillNo string
	Err    error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("bill %s: %s: %v", e.BillNo, ErrTransactionFailed, e.Err)
}

func (e *TransactionError) Unwrap() []error {
	return []error{ErrTransactionFailed, e.Err}
}
