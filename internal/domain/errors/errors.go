package errors

import (
	"errors"
	"fmt"
)

var (
	// Account errors
	ErrAccountNotFound      = errors.New("account not found")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInvalidCurrency      = errors.New("invalid currency")
	ErrOptimisticLockFailed = errors.New("optimistic lock conflict")

	// Transfer errors
	ErrSameAccount   = errors.New("source and target account must differ")
	ErrInvalidAmount = errors.New("invalid amount")

	// Store errors
	ErrStoreUnavailable = errors.New("account store unavailable")

	// Lock errors
	ErrLockAcquisitionFailed = errors.New("failed to acquire lock")
	ErrLockNotHeld           = errors.New("lock not held")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidInput     = errors.New("invalid input")
)

// AccountNotFoundError carries the identifier of the missing account so the
// boundary layer can report which side of a transfer failed.
type AccountNotFoundError struct {
	AccountID string
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("account with id: %s, doesn't exist", e.AccountID)
}

func (e *AccountNotFoundError) Is(target error) bool {
	return target == ErrAccountNotFound
}

// NewAccountNotFound creates an AccountNotFoundError for the given account id.
func NewAccountNotFound(accountID string) *AccountNotFoundError {
	return &AccountNotFoundError{AccountID: accountID}
}

// InsufficientFundsError carries the requested amount and the balance that was
// available at validation time, both in cents.
type InsufficientFundsError struct {
	AccountID string
	Requested int64
	Available int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds at source account with id: %s (requested %d, available %d)",
		e.AccountID, e.Requested, e.Available)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// NewInsufficientFunds creates a new InsufficientFundsError.
func NewInsufficientFunds(accountID string, requested, available int64) *InsufficientFundsError {
	return &InsufficientFundsError{AccountID: accountID, Requested: requested, Available: available}
}

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
