package controller

import (
	"math"

	"github.com/tribalscale/moneytransfer/internal/domain/account"
)

// --- Request DTOs ---
// DTOs carry HTTP/JSON concerns (float64 for money, validation tags).
// The controller converts them to domain values before touching business logic.

// TransferRequestPayload is the body of POST /account/transfer.
type TransferRequestPayload struct {
	Currency      string  `json:"currency" validate:"required,iso4217"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	SourceAccount string  `json:"sourceAccount" validate:"required,max=100,account_id"`
	TargetAccount string  `json:"targetAccount" validate:"required,max=100,account_id"`
}

// --- Response DTOs ---

// AccountPayload represents an account in API responses.
type AccountPayload struct {
	AccountID string  `json:"accountId"`
	Currency  string  `json:"currency"`
	Balance   float64 `json:"balance"`
}

// ErrorResponse carries an opaque numeric code and a generic message.
// Internal detail never appears here.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// FromAccount converts a domain account to an API response.
func FromAccount(a *account.Account) *AccountPayload {
	return &AccountPayload{
		AccountID: a.AccountID,
		Currency:  a.Currency,
		Balance:   centsToFloat(a.Balance),
	}
}

// floatToCents converts a float amount to cents.
func floatToCents(f float64) int64 {
	return int64(math.Round(f * 100))
}

// centsToFloat converts cents to a float amount.
func centsToFloat(cents int64) float64 {
	return float64(cents) / 100.0
}
