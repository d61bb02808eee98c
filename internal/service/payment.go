package service

import (
	"context"
	"errors"
	"time"

	"paymentgateway/internal/bank"
	"paymentgateway/internal/domain"
	"paymentgateway/internal/repository"
)

// Locker serializes authorization of a single idempotency key across
// workers. The store already guarantees at most one PENDING creation and
// one terminal commit per key; the lock additionally ensures only one
// worker talks to the bank for a key at a time.
type Locker interface {
	AcquireAuthorizationLock(ctx context.Context, idempotencyKey string, ttl time.Duration) (bool, error)
	ReleaseAuthorizationLock(ctx context.Context, idempotencyKey string) error
}

// TransactionCache caches terminal transactions for fast replay reads.
// GetTransaction returns (nil, nil) on a miss.
type TransactionCache interface {
	GetTransaction(ctx context.Context, idempotencyKey string) (*domain.Transaction, error)
	SetTransaction(ctx context.Context, txn *domain.Transaction) error
}

// AuthorizePaymentRequest contains the parameters for authorizing a payment.
type AuthorizePaymentRequest struct {
	IdempotencyKey string
	AmountMinor    int64
	Currency       string
	InstrumentRef  string
	MerchantRef    string
}

// PaymentService orchestrates payment authorization: it validates the
// request, guards idempotency through the transaction store, calls the
// bank with bounded retry, and commits exactly one terminal outcome.
type PaymentService struct {
	store    repository.TransactionStore
	bank     bank.Client
	policy   *Policy
	locks    Locker
	cache    TransactionCache
	notifier *NotificationService
	retry    RetryPolicy
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	store repository.TransactionStore,
	bankClient bank.Client,
	policy *Policy,
	locks Locker,
	cache TransactionCache,
	notifier *NotificationService,
	retry RetryPolicy,
) *PaymentService {
	return &PaymentService{
		store:    store,
		bank:     bankClient,
		policy:   policy,
		locks:    locks,
		cache:    cache,
		notifier: notifier,
		retry:    retry,
	}
}

// AuthorizePayment runs one payment through validation, idempotency check,
// bank authorization and commit, returning the durable transaction record.
// Replays of an already-terminal key return the stored record without a
// bank call.
func (s *PaymentService) AuthorizePayment(ctx context.Context, req AuthorizePaymentRequest) (*domain.Transaction, error) {
	if err := s.policy.Evaluate(req); err != nil {
		// Rejected requests are never persisted; the event log is the
		// only trace.
		_ = s.notifier.NotifyRejected(ctx, req, err)
		return nil, err
	}

	snapshot := &domain.Transaction{
		IdempotencyKey: req.IdempotencyKey,
		AmountMinor:    req.AmountMinor,
		Currency:       req.Currency,
		InstrumentRef:  req.InstrumentRef,
		MerchantRef:    req.MerchantRef,
		Status:         domain.TransactionStatusPending,
	}

	txn, isNew, err := s.store.GetOrCreate(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	if !isNew && txn.Status.Terminal() {
		// Idempotent replay: the bank is never called twice for one key.
		s.cacheTerminal(ctx, txn)
		return txn, nil
	}

	// The record is PENDING: either we just created it or a previous
	// attempt crashed mid-flight. Only the lock holder may call the bank.
	acquired, err := s.locks.AcquireAuthorizationLock(ctx, req.IdempotencyKey, s.lockTTL())
	if err != nil {
		return nil, err
	}
	if !acquired {
		// Another worker is authorizing this key right now. Wait for
		// its terminal outcome so every concurrent caller observes the
		// same result; never hand back an in-flight PENDING record.
		return s.awaitOutcome(ctx, req.IdempotencyKey)
	}

	return s.authorizeLocked(ctx, req.IdempotencyKey)
}

// authorizeLocked runs the bank authorization while holding the per-key
// lock. The store is re-read first: another worker may have taken over
// and committed between GetOrCreate and the lock acquisition. This holds
// even on the creation path.
func (s *PaymentService) authorizeLocked(ctx context.Context, idempotencyKey string) (*domain.Transaction, error) {
	defer func() {
		_ = s.locks.ReleaseAuthorizationLock(context.WithoutCancel(ctx), idempotencyKey)
	}()

	cur, err := s.store.Get(ctx, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if cur.Status.Terminal() {
		s.cacheTerminal(ctx, cur)
		return cur, nil
	}

	return s.authorize(ctx, cur)
}

// awaitOutcome polls the store while another worker authorizes the key.
// The holder's retry loop runs under the same overall timeout, so in
// normal operation a terminal record appears well inside the wait budget.
// If the holder releases without committing, the waiter takes the
// authorization over.
func (s *PaymentService) awaitOutcome(ctx context.Context, idempotencyKey string) (*domain.Transaction, error) {
	if s.retry.OverallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.retry.OverallTimeout)
		defer cancel()
	}

	interval := s.retry.BackoffBase
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}

	for {
		cur, err := s.store.Get(ctx, idempotencyKey)
		if err != nil {
			return nil, err
		}
		if cur.Status.Terminal() {
			s.cacheTerminal(ctx, cur)
			return cur, nil
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			// Waited out the holder's whole budget without a commit.
			// Surface the current record rather than block forever; the
			// holder's own deadline path keeps PENDING from becoming
			// permanent.
			return s.store.Get(context.WithoutCancel(ctx), idempotencyKey)
		}

		// The holder may have released without committing (crash before
		// its first commit); try to take the authorization over.
		acquired, err := s.locks.AcquireAuthorizationLock(ctx, idempotencyKey, s.lockTTL())
		if err != nil {
			return nil, err
		}
		if acquired {
			return s.authorizeLocked(ctx, idempotencyKey)
		}
	}
}

// GetTransaction retrieves a transaction by idempotency key.
func (s *PaymentService) GetTransaction(ctx context.Context, idempotencyKey string) (*domain.Transaction, error) {
	if idempotencyKey == "" {
		return nil, ErrInvalidIdempotencyKey
	}

	if s.cache != nil {
		if cached, err := s.cache.GetTransaction(ctx, idempotencyKey); err == nil && cached != nil {
			return cached, nil
		}
	}

	txn, err := s.store.Get(ctx, idempotencyKey)
	if err != nil {
		return nil, err
	}

	s.cacheTerminal(ctx, txn)
	return txn, nil
}

// authorize drives the bank call with bounded retry and commits exactly
// one terminal outcome for the transaction.
func (s *PaymentService) authorize(ctx context.Context, txn *domain.Transaction) (*domain.Transaction, error) {
	if s.retry.OverallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.retry.OverallTimeout)
		defer cancel()
	}

	maxAttempts := s.retry.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	attempts := 0
	lastDetail := "bank unreachable"

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attempts = attempt

		res, err := s.bank.Authorize(ctx, txn)
		if err != nil {
			res = &domain.BankAuthorization{
				Outcome: domain.BankOutcomeIndeterminate,
				Detail:  err.Error(),
			}
		}

		switch res.Outcome {
		case domain.BankOutcomeApproved:
			return s.commit(ctx, txn.IdempotencyKey, repository.Outcome{
				Status:   domain.TransactionStatusApproved,
				AuthCode: res.AuthCode,
				Attempts: attempts,
			})

		case domain.BankOutcomeDeclined:
			// A definitive rejection is terminal with no retry.
			return s.commit(ctx, txn.IdempotencyKey, repository.Outcome{
				Status:        domain.TransactionStatusDeclined,
				FailureReason: res.Detail,
				Attempts:      attempts,
			})

		default:
			if res.Detail != "" {
				lastDetail = res.Detail
			}
		}

		if attempt == maxAttempts {
			break
		}

		// Tie-break: if a concurrent retrier already committed, abandon
		// our attempt and return the stored outcome.
		if cur, err := s.store.Get(ctx, txn.IdempotencyKey); err == nil && cur.Status.Terminal() {
			s.cacheTerminal(ctx, cur)
			return cur, nil
		}

		select {
		case <-time.After(s.retry.Backoff(attempt)):
		case <-ctx.Done():
			// Outer deadline exceeded: a transaction must never stay
			// PENDING because the retry loop ran out of time.
			return s.commit(ctx, txn.IdempotencyKey, repository.Outcome{
				Status:        domain.TransactionStatusFailed,
				FailureReason: lastDetail,
				Attempts:      attempts,
			})
		}
	}

	// Retry budget exhausted with the outcome still unknown. This is
	// FAILED, never DECLINED: an indeterminate outcome is not evidence
	// the payer was or was not charged.
	return s.commit(ctx, txn.IdempotencyKey, repository.Outcome{
		Status:        domain.TransactionStatusFailed,
		FailureReason: lastDetail,
		Attempts:      attempts,
	})
}

// commit records a terminal outcome. If a concurrent commit won the race,
// the winner's record is read back and returned; the conflict is never
// surfaced to the caller.
func (s *PaymentService) commit(ctx context.Context, idempotencyKey string, outcome repository.Outcome) (*domain.Transaction, error) {
	// The commit must land even if the caller's context has expired.
	ctx = context.WithoutCancel(ctx)

	txn, err := s.store.Commit(ctx, idempotencyKey, outcome)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			winner, getErr := s.store.Get(ctx, idempotencyKey)
			if getErr != nil {
				return nil, getErr
			}
			s.cacheTerminal(ctx, winner)
			return winner, nil
		}
		return nil, err
	}

	_ = s.notifier.NotifyOutcome(ctx, txn)
	s.cacheTerminal(ctx, txn)
	return txn, nil
}

func (s *PaymentService) cacheTerminal(ctx context.Context, txn *domain.Transaction) {
	if s.cache == nil || !txn.Status.Terminal() {
		return
	}
	_ = s.cache.SetTransaction(ctx, txn)
}

func (s *PaymentService) lockTTL() time.Duration {
	if s.retry.OverallTimeout > 0 {
		return s.retry.OverallTimeout + 5*time.Second
	}
	return 30 * time.Second
}
