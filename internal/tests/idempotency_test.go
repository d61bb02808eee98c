package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"paymentgateway/internal/domain"
	"paymentgateway/internal/repository"
	"paymentgateway/internal/service"
)

// ──────────────────────────────────────────────
// 2. IDEMPOTENCY AND CONCURRENCY
// ──────────────────────────────────────────────

func TestAuthorizePayment_ReplayReturnsStoredOutcomeWithoutBankCall(t *testing.T) {
	t.Parallel()

	h := newTestHarness()
	h.Bank.Script(&domain.BankAuthorization{
		Outcome:  domain.BankOutcomeApproved,
		AuthCode: "AUTH99",
	})

	ctx := context.Background()
	req := validRequest("abc123")

	first, err := h.Service.AuthorizePayment(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := h.Service.AuthorizePayment(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error on replay: %v", err)
	}

	if got := h.Bank.Calls(); got != 1 {
		t.Errorf("replay must not call the bank again: expected 1 call, got %d", got)
	}
	if second.Status != first.Status || second.AuthCode != first.AuthCode ||
		second.AmountMinor != first.AmountMinor || second.RetryCount != first.RetryCount {
		t.Errorf("replay returned a different record: first=%+v second=%+v", first, second)
	}
	if h.Store.CountTransactions() != 1 {
		t.Errorf("expected exactly 1 transaction, got %d", h.Store.CountTransactions())
	}
}

func TestAuthorizePayment_ConcurrentSameKeySingleBankCall(t *testing.T) {
	t.Parallel()

	h := newTestHarness()

	const workers = 8
	var wg sync.WaitGroup
	results := make([]*domain.Transaction, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.Service.AuthorizePayment(context.Background(), validRequest("shared-key"))
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: unexpected error: %v", i, errs[i])
		}
		if results[i].IdempotencyKey != "shared-key" {
			t.Errorf("worker %d: wrong key %q", i, results[i].IdempotencyKey)
		}
	}

	if got := h.Bank.Calls(); got != 1 {
		t.Errorf("expected exactly 1 bank call across concurrent workers, got %d", got)
	}
	if h.Store.CountTransactions() != 1 {
		t.Errorf("expected exactly 1 transaction, got %d", h.Store.CountTransactions())
	}

	stored := h.Store.GetRecord("shared-key")
	if stored == nil || stored.Status != domain.TransactionStatusApproved {
		t.Fatalf("expected the stored record to be APPROVED, got %+v", stored)
	}

	// Every worker observes the same terminal outcome; a waiter must not
	// come back with the in-flight PENDING record.
	for i, res := range results {
		if !res.Status.Terminal() {
			t.Errorf("worker %d observed a non-terminal status %s", i, res.Status)
			continue
		}
		if res.Status != stored.Status || res.AuthCode != stored.AuthCode {
			t.Errorf("worker %d observed a conflicting terminal outcome: %+v", i, res)
		}
	}
}

func TestAuthorizePayment_PendingTakeoverAfterCrash(t *testing.T) {
	t.Parallel()

	h := newTestHarness()

	// A previous process created the record and died before the bank call
	// resolved.
	h.Store.AddTransaction(&domain.Transaction{
		IdempotencyKey: "orphan-1",
		AmountMinor:    5000,
		Currency:       "USD",
		InstrumentRef:  "tok_1",
		MerchantRef:    "merchant-demo",
		Status:         domain.TransactionStatusPending,
		CreatedAt:      time.Now().Add(-time.Minute),
		UpdatedAt:      time.Now().Add(-time.Minute),
	})

	txn, err := h.Service.AuthorizePayment(context.Background(), validRequest("orphan-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !txn.Status.Terminal() {
		t.Errorf("takeover must drive the orphaned transaction to a terminal status, got %s", txn.Status)
	}
	if got := h.Bank.Calls(); got != 1 {
		t.Errorf("expected 1 bank call, got %d", got)
	}
}

func TestAuthorizePayment_LockWaiterObservesTerminalOutcome(t *testing.T) {
	t.Parallel()

	h := newTestHarness()
	h.Locker.FailAcquire = true

	// Seed a PENDING record: another worker is mid-authorization.
	h.Store.AddTransaction(&domain.Transaction{
		IdempotencyKey: "inflight-1",
		AmountMinor:    5000,
		Currency:       "USD",
		InstrumentRef:  "tok_1",
		MerchantRef:    "merchant-demo",
		Status:         domain.TransactionStatusPending,
	})

	// The lock holder commits while the waiter polls.
	go func() {
		time.Sleep(10 * time.Millisecond)
		_, _ = h.Store.Commit(context.Background(), "inflight-1", repository.Outcome{
			Status:   domain.TransactionStatusApproved,
			AuthCode: "AUTH-WIN",
			Attempts: 1,
		})
	}()

	txn, err := h.Service.AuthorizePayment(context.Background(), validRequest("inflight-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if txn.Status != domain.TransactionStatusApproved || txn.AuthCode != "AUTH-WIN" {
		t.Errorf("the waiter must observe the holder's terminal outcome, got status=%s authCode=%q", txn.Status, txn.AuthCode)
	}
	if got := h.Bank.Calls(); got != 0 {
		t.Errorf("a worker without the lock must not call the bank, got %d calls", got)
	}
}

func TestAuthorizePayment_LockWaitIsBoundedByOverallTimeout(t *testing.T) {
	t.Parallel()

	store := NewMockTransactionStore()
	bankClient := NewMockBank()
	locker := NewMockLocker()
	locker.FailAcquire = true

	store.AddTransaction(&domain.Transaction{
		IdempotencyKey: "stuck-1",
		AmountMinor:    5000,
		Currency:       "USD",
		InstrumentRef:  "tok_1",
		MerchantRef:    "merchant-demo",
		Status:         domain.TransactionStatusPending,
	})

	svc := service.NewPaymentService(
		store,
		bankClient,
		service.NewPolicy(testPolicyConfig()),
		locker,
		NewMockTransactionCache(),
		service.NewNotificationService(),
		service.RetryPolicy{
			MaxAttempts:    3,
			BackoffBase:    time.Millisecond,
			BackoffMax:     5 * time.Millisecond,
			OverallTimeout: 30 * time.Millisecond,
		},
	)

	start := time.Now()
	txn, err := svc.AuthorizePayment(context.Background(), validRequest("stuck-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// No holder ever commits here, so the waiter gives up at its budget
	// instead of blocking forever.
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("lock wait must be bounded by the overall timeout, took %v", elapsed)
	}
	if txn == nil {
		t.Fatal("expected the current record after the wait budget")
	}
	if got := bankClient.Calls(); got != 0 {
		t.Errorf("a worker without the lock must not call the bank, got %d calls", got)
	}
}

func TestGetTransaction_UnknownKeyReturnsNotFound(t *testing.T) {
	t.Parallel()

	h := newTestHarness()

	_, err := h.Service.GetTransaction(context.Background(), "never-seen")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetTransaction_ServedFromCacheAfterTerminalCommit(t *testing.T) {
	t.Parallel()

	h := newTestHarness()
	h.Bank.Script(&domain.BankAuthorization{
		Outcome:  domain.BankOutcomeApproved,
		AuthCode: "AUTH77",
	})

	ctx := context.Background()
	if _, err := h.Service.AuthorizePayment(ctx, validRequest("cache-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The terminal record was pushed to the cache on commit.
	cached, err := h.Cache.GetTransaction(ctx, "cache-1")
	if err != nil || cached == nil {
		t.Fatalf("expected the terminal transaction in cache, got txn=%v err=%v", cached, err)
	}
	if cached.AuthCode != "AUTH77" {
		t.Errorf("expected cached auth code AUTH77, got %q", cached.AuthCode)
	}
}
