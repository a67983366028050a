package transfer

import (
	"github.com/tribalscale/moneytransfer/internal/domain/errors"
)

// MoneyTransfer is the value describing a single transfer request. It is never
// persisted; the engine works from freshly fetched account state on every call.
type MoneyTransfer struct {
	SourceAccountID string
	TargetAccountID string
	Amount          int64 // in cents
	Currency        string
}

// NewMoneyTransfer validates and builds a transfer value. The currency is
// checked against the ISO registry at the boundary; here it only has to be
// present. Self-transfers are rejected outright: executing two writes against
// the same record from stale pre-fetched values would corrupt the balance.
func NewMoneyTransfer(sourceAccountID, targetAccountID string, amount int64, currency string) (*MoneyTransfer, error) {
	if sourceAccountID == "" {
		return nil, errors.NewValidationError("source_account", "cannot be empty")
	}
	if targetAccountID == "" {
		return nil, errors.NewValidationError("target_account", "cannot be empty")
	}
	if sourceAccountID == targetAccountID {
		return nil, errors.ErrSameAccount
	}
	if amount <= 0 {
		return nil, errors.NewValidationError("amount", "must be greater than 0")
	}
	if currency == "" {
		return nil, errors.NewValidationError("currency", "cannot be empty")
	}

	return &MoneyTransfer{
		SourceAccountID: sourceAccountID,
		TargetAccountID: targetAccountID,
		Amount:          amount,
		Currency:        currency,
	}, nil
}

// Result reports how many account records a successful transfer mutated.
type Result struct {
	Updated int
}
