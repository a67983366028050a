package service

import (
	"context"
	goerrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribalscale/moneytransfer/internal/domain/account"
	domainErrors "github.com/tribalscale/moneytransfer/internal/domain/errors"
	"github.com/tribalscale/moneytransfer/internal/domain/transfer"
	"github.com/tribalscale/moneytransfer/internal/testutil"
)

// --- Test Helpers ---

func setupTransferService() (*TransferService, *testutil.MockAccountRepository) {
	repo := testutil.NewMockAccountRepository()
	cfg := DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	svc := NewTransferService(repo, testutil.NoopTxManager{}, nil, nil, cfg, zerolog.Nop())
	return svc, repo
}

func mustTransfer(t *testing.T, source, target string, amountCents int64) *transfer.MoneyTransfer {
	t.Helper()
	mt, err := transfer.NewMoneyTransfer(source, target, amountCents, "EUR")
	require.NoError(t, err)
	return mt
}

// --- Transfer ---

func TestTransfer_Success(t *testing.T) {
	svc, repo := setupTransferService()
	testutil.SeedAccounts(repo)
	ctx := context.Background()

	result, err := svc.Transfer(ctx, mustTransfer(t, "1", "2", 100000))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)

	assert.Equal(t, int64(100000), repo.GetStoredAccount("1").Balance)
	assert.Equal(t, int64(200000), repo.GetStoredAccount("2").Balance)
}

func TestTransfer_ConservesTotalBalance(t *testing.T) {
	svc, repo := setupTransferService()
	testutil.SeedAccounts(repo)
	ctx := context.Background()

	before := repo.GetStoredAccount("1").Balance + repo.GetStoredAccount("2").Balance

	_, err := svc.Transfer(ctx, mustTransfer(t, "1", "2", 73300))
	require.NoError(t, err)

	after := repo.GetStoredAccount("1").Balance + repo.GetStoredAccount("2").Balance
	assert.Equal(t, before, after)
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	svc, repo := setupTransferService()
	testutil.SeedAccounts(repo)
	ctx := context.Background()

	_, err := svc.Transfer(ctx, mustTransfer(t, "1", "2", 1000000))
	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrInsufficientFunds)

	var insufficientErr *domainErrors.InsufficientFundsError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, "1", insufficientErr.AccountID)
	assert.Equal(t, int64(1000000), insufficientErr.Requested)
	assert.Equal(t, int64(200000), insufficientErr.Available)

	// Both balances unchanged
	assert.Equal(t, int64(200000), repo.GetStoredAccount("1").Balance)
	assert.Equal(t, int64(100000), repo.GetStoredAccount("2").Balance)
}

func TestTransfer_SourceNotFound(t *testing.T) {
	svc, repo := setupTransferService()
	testutil.SeedAccounts(repo)
	ctx := context.Background()

	_, err := svc.Transfer(ctx, mustTransfer(t, "nonexisting", "2", 10000))
	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrAccountNotFound)

	var notFoundErr *domainErrors.AccountNotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, "nonexisting", notFoundErr.AccountID)

	// No writes occurred
	assert.Equal(t, int64(100000), repo.GetStoredAccount("2").Balance)
}

func TestTransfer_TargetNotFound(t *testing.T) {
	svc, repo := setupTransferService()
	testutil.SeedAccounts(repo)
	ctx := context.Background()

	_, err := svc.Transfer(ctx, mustTransfer(t, "1", "nonexisting", 10000))
	require.Error(t, err)

	var notFoundErr *domainErrors.AccountNotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, "nonexisting", notFoundErr.AccountID)

	// Source was not debited
	assert.Equal(t, int64(200000), repo.GetStoredAccount("1").Balance)
}

func TestTransfer_BothMissing_SourceTakesPrecedence(t *testing.T) {
	svc, _ := setupTransferService()
	ctx := context.Background()

	_, err := svc.Transfer(ctx, mustTransfer(t, "ghost-src", "ghost-dst", 10000))
	require.Error(t, err)

	var notFoundErr *domainErrors.AccountNotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, "ghost-src", notFoundErr.AccountID)
}

func TestTransfer_InsufficientFundsBeforeTargetLookup(t *testing.T) {
	svc, repo := setupTransferService()
	repo.AddAccount(testutil.NewTestAccount("1", 5000, "EUR"))
	ctx := context.Background()

	// Source exists but is short, target is missing: sufficiency is checked
	// before target existence.
	_, err := svc.Transfer(ctx, mustTransfer(t, "1", "nonexisting", 10000))
	assert.ErrorIs(t, err, domainErrors.ErrInsufficientFunds)
}

func TestTransfer_ExactBalance(t *testing.T) {
	svc, repo := setupTransferService()
	testutil.SeedAccounts(repo)
	ctx := context.Background()

	result, err := svc.Transfer(ctx, mustTransfer(t, "1", "2", 200000))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, int64(0), repo.GetStoredAccount("1").Balance)
	assert.Equal(t, int64(300000), repo.GetStoredAccount("2").Balance)
}

// --- Concurrency ---

func TestTransfer_Concurrent_ExactlyOneSucceeds(t *testing.T) {
	svc, repo := setupTransferService()
	testutil.SeedAccounts(repo)
	ctx := context.Background()

	// Two transfers of 1500.00 each against a balance of 2000.00: the second
	// must observe the post-first balance of 500.00 and fail.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Transfer(ctx, mustTransfer(t, "1", "2", 150000))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domainErrors.ErrInsufficientFunds)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, int64(50000), repo.GetStoredAccount("1").Balance)
	assert.Equal(t, int64(250000), repo.GetStoredAccount("2").Balance)
}

func TestTransfer_Concurrent_NoLostUpdates(t *testing.T) {
	svc, repo := setupTransferService()
	testutil.SeedAccounts(repo)
	ctx := context.Background()

	// Four transfers of 800.00 against 2000.00: at most two can succeed.
	const workers = 4
	const amount = 80000

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Transfer(ctx, mustTransfer(t, "1", "2", amount))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		}
	}
	assert.LessOrEqual(t, successes, 2)

	src := repo.GetStoredAccount("1").Balance
	dst := repo.GetStoredAccount("2").Balance
	assert.GreaterOrEqual(t, src, int64(0))
	assert.Equal(t, int64(200000)-int64(successes)*amount, src)
	assert.Equal(t, int64(100000)+int64(successes)*amount, dst)
}

func TestTransfer_Concurrent_OppositeDirections(t *testing.T) {
	svc, repo := setupTransferService()
	testutil.SeedAccounts(repo)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = svc.Transfer(ctx, mustTransfer(t, "1", "2", 50000))
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = svc.Transfer(ctx, mustTransfer(t, "2", "1", 30000))
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, int64(180000), repo.GetStoredAccount("1").Balance)
	assert.Equal(t, int64(120000), repo.GetStoredAccount("2").Balance)
}

// --- Partial failure ---

// flakyRepo fails balance writes for one account id, letting tests drive a
// debit-committed-credit-failed sequence.
type flakyRepo struct {
	*testutil.MockAccountRepository
	failFor string
}

func (r *flakyRepo) UpdateBalance(ctx context.Context, acct *account.Account) error {
	if acct.AccountID == r.failFor {
		return goerrors.New("store write failed")
	}
	return r.MockAccountRepository.UpdateBalance(ctx, acct)
}

func TestTransfer_CreditFailure_CompensatesDebit(t *testing.T) {
	inner := testutil.NewMockAccountRepository()
	testutil.SeedAccounts(inner)
	repo := &flakyRepo{MockAccountRepository: inner, failFor: "2"}

	cfg := DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	svc := NewTransferService(repo, testutil.NoopTxManager{}, nil, nil, cfg, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Transfer(ctx, mustTransfer(t, "1", "2", 50000))
	require.Error(t, err)
	assert.NotErrorIs(t, err, domainErrors.ErrInsufficientFunds)

	// The committed debit was credited back: no money left in flight.
	assert.Equal(t, int64(200000), inner.GetStoredAccount("1").Balance)
	assert.Equal(t, int64(100000), inner.GetStoredAccount("2").Balance)
}

func TestTransfer_StoreError_NotRetried(t *testing.T) {
	svc, repo := setupTransferService()
	testutil.SeedAccounts(repo)
	ctx := context.Background()

	calls := 0
	repo.UpdateBalanceFunc = func(ctx context.Context, acct *account.Account) error {
		calls++
		return goerrors.New("store unavailable")
	}

	_, err := svc.Transfer(ctx, mustTransfer(t, "1", "2", 10000))
	require.Error(t, err)
	// Only conflict errors are retried; a store failure aborts after the
	// first debit write attempt.
	assert.Equal(t, 1, calls)
}

func TestTransfer_BreakerOpens_AfterRepeatedStoreFailures(t *testing.T) {
	repo := testutil.NewMockAccountRepository()
	testutil.SeedAccounts(repo)
	repo.UpdateBalanceFunc = func(ctx context.Context, acct *account.Account) error {
		return goerrors.New("store unavailable")
	}

	cfg := DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	cfg.BreakerThreshold = 2
	svc := NewTransferService(repo, testutil.NoopTxManager{}, nil, nil, cfg, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.Transfer(ctx, mustTransfer(t, "1", "2", 10000))
		require.Error(t, err)
		require.NotErrorIs(t, err, domainErrors.ErrStoreUnavailable)
	}

	_, err := svc.Transfer(ctx, mustTransfer(t, "1", "2", 10000))
	assert.ErrorIs(t, err, domainErrors.ErrStoreUnavailable)
}

func TestTransfer_DomainErrorsDoNotTripBreaker(t *testing.T) {
	repo := testutil.NewMockAccountRepository()
	testutil.SeedAccounts(repo)

	cfg := DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	cfg.BreakerThreshold = 2
	svc := NewTransferService(repo, testutil.NoopTxManager{}, nil, nil, cfg, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Transfer(ctx, mustTransfer(t, "1", "2", 1000000))
		assert.ErrorIs(t, err, domainErrors.ErrInsufficientFunds)
	}

	// The breaker stayed closed: a valid transfer still goes through.
	result, err := svc.Transfer(ctx, mustTransfer(t, "1", "2", 10000))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)
}

// --- GetAccount ---

func TestGetAccount_Success(t *testing.T) {
	svc, repo := setupTransferService()
	testutil.SeedAccounts(repo)
	ctx := context.Background()

	acct, err := svc.GetAccount(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "1", acct.AccountID)
	assert.Equal(t, "EUR", acct.Currency)
	assert.Equal(t, int64(200000), acct.Balance)
}

func TestGetAccount_NotFound(t *testing.T) {
	svc, _ := setupTransferService()
	ctx := context.Background()

	_, err := svc.GetAccount(ctx, "nonexisting")
	require.Error(t, err)

	var notFoundErr *domainErrors.AccountNotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, "nonexisting", notFoundErr.AccountID)
}

func TestGetAccount_IdempotentRead(t *testing.T) {
	svc, repo := setupTransferService()
	testutil.SeedAccounts(repo)
	ctx := context.Background()

	first, err := svc.GetAccount(ctx, "1")
	require.NoError(t, err)
	second, err := svc.GetAccount(ctx, "1")
	require.NoError(t, err)

	assert.Equal(t, first.Balance, second.Balance)
	assert.Equal(t, first.Version, second.Version)
}
