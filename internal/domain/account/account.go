package account

import (
	"time"

	"github.com/tribalscale/moneytransfer/internal/domain/errors"
)

// Account is a ledger entry keyed by an externally assigned account id.
// Balances are held in cents so repeated transfers never accumulate
// floating-point drift.
type Account struct {
	AccountID string
	Currency  string
	Balance   int64 // in cents
	Version   int   // Optimistic locking
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewAccount(accountID string, initialBalance int64, currency string) (*Account, error) {
	if accountID == "" {
		return nil, errors.NewValidationError("account_id", "cannot be empty")
	}
	if initialBalance < 0 {
		return nil, errors.NewValidationError("initial_balance", "cannot be negative")
	}
	if currency == "" {
		return nil, errors.NewValidationError("currency", "cannot be empty")
	}

	now := time.Now()
	return &Account{
		AccountID: accountID,
		Currency:  currency,
		Balance:   initialBalance,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Debit subtracts amount from the balance. The balance check and the version
// bump together with the repository's conditional update keep the balance
// from going negative under concurrent transfers.
func (a *Account) Debit(amount int64) error {
	if amount <= 0 {
		return errors.NewValidationError("amount", "must be greater than 0")
	}
	if a.Balance < amount {
		return errors.NewInsufficientFunds(a.AccountID, amount, a.Balance)
	}

	a.Balance -= amount
	a.Version++
	a.UpdatedAt = time.Now()
	return nil
}

// Credit adds amount to the balance.
func (a *Account) Credit(amount int64) error {
	if amount <= 0 {
		return errors.NewValidationError("amount", "must be greater than 0")
	}

	a.Balance += amount
	a.Version++
	a.UpdatedAt = time.Now()
	return nil
}
