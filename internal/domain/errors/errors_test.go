package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountNotFoundError(t *testing.T) {
	err := NewAccountNotFound("acc42")

	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Equal(t, "account with id: acc42, doesn't exist", err.Error())

	var notFoundErr *AccountNotFoundError
	require.ErrorAs(t, fmt.Errorf("fetching source: %w", err), &notFoundErr)
	assert.Equal(t, "acc42", notFoundErr.AccountID)
}

func TestInsufficientFundsError(t *testing.T) {
	err := NewInsufficientFunds("acc1", 150000, 100000)

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.NotErrorIs(t, err, ErrAccountNotFound)
	assert.Equal(t, int64(150000), err.Requested)
	assert.Equal(t, int64(100000), err.Available)
	assert.Contains(t, err.Error(), "acc1")
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewDomainError("STORE_ERROR", "updating balance", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "updating balance: connection refused", err.Error())
}

func TestDomainError_NoCause(t *testing.T) {
	err := NewDomainError("STORE_ERROR", "updating balance", nil)
	assert.Equal(t, "updating balance", err.Error())
	assert.NoError(t, errors.Unwrap(err))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("amount", "must be greater than 0")
	assert.Equal(t, "validation failed for field amount: must be greater than 0", err.Error())
}
