package service

import (
	"context"
	goerrors "errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/tribalscale/moneytransfer/internal/domain/account"
	"github.com/tribalscale/moneytransfer/internal/domain/errors"
	"github.com/tribalscale/moneytransfer/internal/domain/transfer"
	"github.com/tribalscale/moneytransfer/internal/infrastructure/observability"
	"github.com/tribalscale/moneytransfer/pkg/retry"
	"github.com/tribalscale/moneytransfer/pkg/saga"
)

// Config holds the transfer service tuning knobs.
type Config struct {
	// MaxRetries bounds optimistic-lock conflict retries. Store outages are
	// never retried here; that is the caller's call.
	MaxRetries uint
	RetryDelay time.Duration
	// Circuit breaker guarding the account store.
	BreakerThreshold uint32
	BreakerTimeout   time.Duration
}

// DefaultConfig returns the default transfer service configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries:       5,
		RetryDelay:       10 * time.Millisecond,
		BreakerThreshold: 10,
		BreakerTimeout:   30 * time.Second,
	}
}

// TransferService moves money between two accounts and reads account details.
// It holds no state across requests: every transfer re-reads current balances
// under row locks, writes both sides conditionally on the versions it read,
// and retries only on version conflicts.
type TransferService struct {
	accountRepo account.Repository
	txManager   TransactionManager
	locker      AccountLocker // optional, for multi-instance deployments
	metrics     *observability.Metrics
	breaker     *gobreaker.CircuitBreaker[*transfer.Result]
	retryCfg    retry.Config
	logger      zerolog.Logger
}

// NewTransferService creates a new TransferService. locker and metrics may be
// nil.
func NewTransferService(
	accountRepo account.Repository,
	txManager TransactionManager,
	locker AccountLocker,
	metrics *observability.Metrics,
	cfg Config,
	logger zerolog.Logger,
) *TransferService {
	s := &TransferService{
		accountRepo: accountRepo,
		txManager:   txManager,
		locker:      locker,
		metrics:     metrics,
		retryCfg: retry.Config{
			MaxAttempts:  cfg.MaxRetries,
			InitialDelay: cfg.RetryDelay,
			MaxDelay:     1 * time.Second,
		},
		logger: logger,
	}

	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = DefaultConfig().BreakerThreshold
	}
	timeout := cfg.BreakerTimeout
	if timeout == 0 {
		timeout = DefaultConfig().BreakerTimeout
	}

	s.breaker = gobreaker.NewCircuitBreaker[*transfer.Result](gobreaker.Settings{
		Name:        "account-store",
		MaxRequests: threshold,
		Interval:    60 * time.Second,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= threshold && failureRatio >= 0.6
		},
		// Client errors say nothing about store health.
		IsSuccessful: func(err error) bool {
			return err == nil || isDomainError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
			if metrics != nil {
				metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})

	return s
}

// Transfer moves mt.Amount from the source account to the target account.
// On success both balances have been durably updated and the result reports
// two mutated records.
func (s *TransferService) Transfer(ctx context.Context, mt *transfer.MoneyTransfer) (*transfer.Result, error) {
	s.logger.Info().
		Str("source_account", mt.SourceAccountID).
		Str("target_account", mt.TargetAccountID).
		Int64("amount_cents", mt.Amount).
		Msg("transferring money from account to account")

	start := time.Now()
	result, err := s.breaker.Execute(func() (*transfer.Result, error) {
		return retry.DoWithResult(ctx, s.retryCfg, isConflict, func() (*transfer.Result, error) {
			return s.executeTransfer(ctx, mt)
		})
	})
	s.recordTransfer(time.Since(start), err)

	if goerrors.Is(err, gobreaker.ErrOpenState) || goerrors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.ErrStoreUnavailable
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("source_account", mt.SourceAccountID).
		Str("target_account", mt.TargetAccountID).
		Msg("updated all balances")
	return result, nil
}

// GetAccount fetches the account with the given id. No side effects.
func (s *TransferService) GetAccount(ctx context.Context, accountID string) (*account.Account, error) {
	acct, err := s.accountRepo.GetByAccountID(ctx, accountID)
	if s.metrics != nil {
		status := "success"
		if err != nil {
			status = transferStatus(err)
		}
		s.metrics.AccountLookupsTotal.WithLabelValues(status).Inc()
	}
	if err != nil {
		return nil, err
	}
	s.logger.Debug().
		Str("account_id", acct.AccountID).
		Int64("balance_cents", acct.Balance).
		Msg("fetched account details")
	return acct, nil
}

// executeTransfer is a single transfer attempt: lock, validate, debit, credit,
// all inside one store transaction.
func (s *TransferService) executeTransfer(ctx context.Context, mt *transfer.MoneyTransfer) (*transfer.Result, error) {
	if s.locker != nil {
		first, second := orderedPair(mt.SourceAccountID, mt.TargetAccountID)
		release, err := s.locker.LockAccounts(ctx, first, second)
		if err != nil {
			return nil, err
		}
		defer release(ctx)
	}

	var result transfer.Result
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		src, dst, err := s.lockPair(txCtx, mt)
		if err != nil {
			return err
		}

		// Fail-fast precedence: source existence, then sufficiency, then
		// target existence. The sufficiency check holds until commit because
		// the row stays locked.
		if src == nil {
			return errors.NewAccountNotFound(mt.SourceAccountID)
		}
		if src.Balance < mt.Amount {
			return errors.NewInsufficientFunds(mt.SourceAccountID, mt.Amount, src.Balance)
		}
		if dst == nil {
			return errors.NewAccountNotFound(mt.TargetAccountID)
		}

		s.logger.Debug().
			Str("source_account", src.AccountID).Int64("source_balance", src.Balance).
			Str("target_account", dst.AccountID).Int64("target_balance", dst.Balance).
			Msg("got both accounts")

		if err := src.Debit(mt.Amount); err != nil {
			return err
		}
		if err := dst.Credit(mt.Amount); err != nil {
			return err
		}

		sg := saga.New("money-transfer").
			AddStep(saga.Step{
				Name: "debit-source",
				Execute: func(stepCtx context.Context) error {
					return s.accountRepo.UpdateBalance(stepCtx, src)
				},
				Compensate: s.creditBack(mt.SourceAccountID, mt.Amount),
			}).
			AddStep(saga.Step{
				Name: "credit-target",
				Execute: func(stepCtx context.Context) error {
					return s.accountRepo.UpdateBalance(stepCtx, dst)
				},
			})
		if err := sg.Execute(txCtx); err != nil {
			return err
		}

		s.recordBalances(src, dst)
		result.Updated = 2
		return nil
	})
	if err != nil {
		if isConflict(err) && s.metrics != nil {
			s.metrics.ConflictRetries.Inc()
		}
		return nil, err
	}
	return &result, nil
}

// lockPair row-locks both accounts in lexicographic id order so two opposite
// transfers between the same accounts cannot deadlock. A missing account is
// not an error here; the caller decides which absence to report first.
func (s *TransferService) lockPair(ctx context.Context, mt *transfer.MoneyTransfer) (src, dst *account.Account, err error) {
	first, second := orderedPair(mt.SourceAccountID, mt.TargetAccountID)

	locked := make(map[string]*account.Account, 2)
	for _, id := range []string{first, second} {
		acct, lockErr := s.accountRepo.Lock(ctx, id)
		if lockErr != nil {
			if goerrors.Is(lockErr, errors.ErrAccountNotFound) {
				continue
			}
			return nil, nil, lockErr
		}
		locked[acct.AccountID] = acct
	}
	return locked[mt.SourceAccountID], locked[mt.TargetAccountID], nil
}

// creditBack compensates a committed debit by re-reading the source account
// and crediting the amount back.
func (s *TransferService) creditBack(accountID string, amount int64) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		acct, err := s.accountRepo.Lock(ctx, accountID)
		if err != nil {
			return err
		}
		if err := acct.Credit(amount); err != nil {
			return err
		}
		return s.accountRepo.UpdateBalance(ctx, acct)
	}
}

func (s *TransferService) recordTransfer(elapsed time.Duration, err error) {
	if s.metrics == nil {
		return
	}
	status := transferStatus(err)
	s.metrics.TransfersTotal.WithLabelValues(status).Inc()
	s.metrics.TransferDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	if err != nil && !isDomainError(err) {
		s.metrics.TransferErrors.WithLabelValues("store").Inc()
	}
}

func (s *TransferService) recordBalances(src, dst *account.Account) {
	if s.metrics == nil {
		return
	}
	s.metrics.AccountBalance.WithLabelValues(src.AccountID, src.Currency).Set(float64(src.Balance) / 100.0)
	s.metrics.AccountBalance.WithLabelValues(dst.AccountID, dst.Currency).Set(float64(dst.Balance) / 100.0)
}

func transferStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case goerrors.Is(err, errors.ErrInsufficientFunds):
		return "insufficient_funds"
	case goerrors.Is(err, errors.ErrAccountNotFound):
		return "not_found"
	case goerrors.Is(err, errors.ErrOptimisticLockFailed):
		return "conflict"
	default:
		return "error"
	}
}

// isConflict reports whether err is a compare-and-swap conflict worth
// re-reading and re-validating for.
func isConflict(err error) bool {
	return goerrors.Is(err, errors.ErrOptimisticLockFailed)
}

// isDomainError reports whether err is a client-attributable failure rather
// than a store one.
func isDomainError(err error) bool {
	var validationErr *errors.ValidationError
	return goerrors.Is(err, errors.ErrAccountNotFound) ||
		goerrors.Is(err, errors.ErrInsufficientFunds) ||
		goerrors.Is(err, errors.ErrSameAccount) ||
		goerrors.Is(err, errors.ErrOptimisticLockFailed) ||
		goerrors.As(err, &validationErr)
}

// orderedPair returns the two ids in lexicographic order.
func orderedPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
