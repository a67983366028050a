package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tribalscale/moneytransfer/internal/domain/account"
	domainErrors "github.com/tribalscale/moneytransfer/internal/domain/errors"
)

// scanner is implemented by pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// AccountRepository implements account.Repository using PostgreSQL.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// scanAccount scans an account from any source implementing the scanner interface.
func (r *AccountRepository) scanAccount(s scanner) (*account.Account, error) {
	a := &account.Account{}
	var balanceStr string
	err := s.Scan(&a.AccountID, &a.Currency, &balanceStr, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	cents, err := numericStringToCents(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("parse balance: %w", err)
	}
	a.Balance = cents
	return a, nil
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, a *account.Account) error {
	balanceStr := centsToNumericString(a.Balance)
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO accounts (account_id, currency, balance, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.AccountID, a.Currency, balanceStr, a.Version, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByAccountID retrieves an account by its id.
func (r *AccountRepository) GetByAccountID(ctx context.Context, accountID string) (*account.Account, error) {
	a, err := r.scanAccount(r.db(ctx).QueryRow(ctx,
		`SELECT account_id, currency, balance, version, created_at, updated_at
		 FROM accounts WHERE account_id = $1`, accountID))
	if err != nil {
		if errors.Is(err, domainErrors.ErrAccountNotFound) {
			return nil, domainErrors.NewAccountNotFound(accountID)
		}
		return nil, err
	}
	return a, nil
}

// UpdateBalance writes the balance conditionally on the version the caller
// read. RowsAffected is zero when a concurrent writer bumped the version
// first; the caller re-reads and retries.
func (r *AccountRepository) UpdateBalance(ctx context.Context, a *account.Account) error {
	balanceStr := centsToNumericString(a.Balance)
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE accounts SET balance = $1, version = $2, updated_at = $3
		 WHERE account_id = $4 AND version = $5`,
		balanceStr, a.Version, a.UpdatedAt, a.AccountID, a.Version-1,
	)
	if err != nil {
		return fmt.Errorf("update account balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrOptimisticLockFailed
	}
	return nil
}

// Lock acquires a row-level lock on the account (SELECT FOR UPDATE).
func (r *AccountRepository) Lock(ctx context.Context, accountID string) (*account.Account, error) {
	a, err := r.scanAccount(r.db(ctx).QueryRow(ctx,
		`SELECT account_id, currency, balance, version, created_at, updated_at
		 FROM accounts WHERE account_id = $1 FOR UPDATE`, accountID))
	if err != nil {
		if errors.Is(err, domainErrors.ErrAccountNotFound) {
			return nil, domainErrors.NewAccountNotFound(accountID)
		}
		return nil, err
	}
	return a, nil
}
