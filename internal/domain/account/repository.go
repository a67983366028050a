package account

import (
	"context"
)

// Repository defines the interface for account persistence. It is the only
// mutable collaborator the transfer engine depends on: a point lookup plus a
// conditional balance write.
type Repository interface {
	// Create creates a new account
	Create(ctx context.Context, account *Account) error

	// GetByAccountID retrieves an account by its id.
	// Returns errors.ErrAccountNotFound when no record exists.
	GetByAccountID(ctx context.Context, accountID string) (*Account, error)

	// UpdateBalance writes the account's balance conditionally on the version
	// the caller read (compare-and-swap). Returns ErrOptimisticLockFailed when
	// a concurrent writer got there first.
	UpdateBalance(ctx context.Context, account *Account) error

	// Lock locks an account for update (SELECT FOR UPDATE)
	Lock(ctx context.Context, accountID string) (*Account, error)
}
