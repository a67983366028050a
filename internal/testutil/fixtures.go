package testutil

import (
	"time"

	"github.com/tribalscale/moneytransfer/internal/domain/account"
)

func NewTestAccount(accountID string, balanceCents int64, currency string) *account.Account {
	now := time.Now()
	return &account.Account{
		AccountID: accountID,
		Currency:  currency,
		Balance:   balanceCents,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SeedAccounts loads the canonical fixture ledger: account "1" with 2000.00
// EUR and account "2" with 1000.00 EUR.
func SeedAccounts(repo *MockAccountRepository) {
	repo.AddAccount(NewTestAccount("1", 200000, "EUR"))
	repo.AddAccount(NewTestAccount("2", 100000, "EUR"))
}
