package testutil

import (
	"context"
	"sync"

	"github.com/tribalscale/moneytransfer/internal/domain/account"
	domainErrors "github.com/tribalscale/moneytransfer/internal/domain/errors"
)

// MockAccountRepository is an in-memory, thread-safe implementation of
// account.Repository. UpdateBalance honors compare-and-swap semantics on the
// version column, so concurrent-transfer tests exercise the same conflict
// paths the SQL store produces.
type MockAccountRepository struct {
	mu       sync.Mutex
	accounts map[string]*account.Account

	CreateFunc         func(ctx context.Context, acct *account.Account) error
	GetByAccountIDFunc func(ctx context.Context, accountID string) (*account.Account, error)
	UpdateBalanceFunc  func(ctx context.Context, acct *account.Account) error
	LockFunc           func(ctx context.Context, accountID string) (*account.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*account.Account),
	}
}

// AddAccount pre-populates the mock with an account.
func (m *MockAccountRepository) AddAccount(acct *account.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *acct
	m.accounts[acct.AccountID] = &cp
}

// GetStoredAccount returns the current stored state, bypassing overrides.
func (m *MockAccountRepository) GetStoredAccount(accountID string) *account.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[accountID]
	if !ok {
		return nil
	}
	cp := *acct
	return &cp
}

func (m *MockAccountRepository) Create(ctx context.Context, acct *account.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, acct)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *acct
	m.accounts[acct.AccountID] = &cp
	return nil
}

func (m *MockAccountRepository) GetByAccountID(ctx context.Context, accountID string) (*account.Account, error) {
	if m.GetByAccountIDFunc != nil {
		return m.GetByAccountIDFunc(ctx, accountID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[accountID]
	if !ok {
		return nil, domainErrors.NewAccountNotFound(accountID)
	}
	cp := *acct
	return &cp, nil
}

// UpdateBalance applies the write only when the caller's version is exactly
// one ahead of the stored one, matching the SQL conditional update.
func (m *MockAccountRepository) UpdateBalance(ctx context.Context, acct *account.Account) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, acct)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.accounts[acct.AccountID]
	if !ok {
		return domainErrors.NewAccountNotFound(acct.AccountID)
	}
	if stored.Version != acct.Version-1 {
		return domainErrors.ErrOptimisticLockFailed
	}
	cp := *acct
	m.accounts[acct.AccountID] = &cp
	return nil
}

// Lock returns a snapshot. The mock has no row locks; serialization comes
// from the compare-and-swap in UpdateBalance plus the caller's retry loop.
func (m *MockAccountRepository) Lock(ctx context.Context, accountID string) (*account.Account, error) {
	if m.LockFunc != nil {
		return m.LockFunc(ctx, accountID)
	}
	return m.GetByAccountID(ctx, accountID)
}

// NoopTxManager runs the callback without any transaction, for tests against
// the in-memory repository.
type NoopTxManager struct{}

func (NoopTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
