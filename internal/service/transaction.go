package service

import "context"

// TransactionManager defines the interface for transaction management.
// The transfer service uses it to apply the debit and the credit as a single
// all-or-nothing unit against the store.
type TransactionManager interface {
	// WithTransaction executes the given function within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// Otherwise, it is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// AccountLocker serializes transfers touching the same accounts across
// process instances. Implementations must acquire locks in the order the ids
// are given; callers pass them pre-sorted to avoid deadlocks.
type AccountLocker interface {
	// LockAccounts acquires a lock per account id and returns a release
	// function. On error no locks are held.
	LockAccounts(ctx context.Context, accountIDs ...string) (release func(ctx context.Context), err error)
}
