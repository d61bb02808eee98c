package tests

import (
	"context"
	"testing"
	"time"

	"paymentgateway/internal/domain"
	"paymentgateway/internal/service"
)

// ──────────────────────────────────────────────
// 1. AUTHORIZATION OUTCOMES
// ──────────────────────────────────────────────

func TestAuthorizePayment_ApprovedRecordsAuthCode(t *testing.T) {
	t.Parallel()

	h := newTestHarness()
	h.Bank.Script(&domain.BankAuthorization{
		Outcome:  domain.BankOutcomeApproved,
		AuthCode: "AUTH99",
	})

	ctx := context.Background()
	txn, err := h.Service.AuthorizePayment(ctx, validRequest("abc123"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if txn.Status != domain.TransactionStatusApproved {
		t.Errorf("expected status %s, got %s", domain.TransactionStatusApproved, txn.Status)
	}
	if txn.AuthCode != "AUTH99" {
		t.Errorf("expected auth code AUTH99, got %q", txn.AuthCode)
	}
	if txn.RetryCount != 1 {
		t.Errorf("expected retry count 1, got %d", txn.RetryCount)
	}
	if got := h.Bank.Calls(); got != 1 {
		t.Errorf("expected 1 bank call, got %d", got)
	}

	// The stored record matches what the caller saw.
	stored, err := h.Service.GetTransaction(ctx, "abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Status != domain.TransactionStatusApproved || stored.AuthCode != "AUTH99" {
		t.Errorf("stored record mismatch: status=%s authCode=%q", stored.Status, stored.AuthCode)
	}
}

func TestAuthorizePayment_DeclinedIsTerminalWithoutRetry(t *testing.T) {
	t.Parallel()

	h := newTestHarness()
	h.Bank.Script(&domain.BankAuthorization{
		Outcome: domain.BankOutcomeDeclined,
		Detail:  "insufficient funds",
	})

	txn, err := h.Service.AuthorizePayment(context.Background(), validRequest("decline-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if txn.Status != domain.TransactionStatusDeclined {
		t.Errorf("expected status %s, got %s", domain.TransactionStatusDeclined, txn.Status)
	}
	if txn.FailureReason != "insufficient funds" {
		t.Errorf("expected failure reason to be recorded, got %q", txn.FailureReason)
	}
	if txn.AuthCode != "" {
		t.Errorf("declined transaction must not carry an auth code, got %q", txn.AuthCode)
	}
	if got := h.Bank.Calls(); got != 1 {
		t.Errorf("a decline must not be retried: expected 1 bank call, got %d", got)
	}
}

func TestAuthorizePayment_IndeterminateExhaustionFails(t *testing.T) {
	t.Parallel()

	h := newTestHarness()
	h.Bank.Script(
		&domain.BankAuthorization{Outcome: domain.BankOutcomeIndeterminate},
		&domain.BankAuthorization{Outcome: domain.BankOutcomeIndeterminate},
		&domain.BankAuthorization{Outcome: domain.BankOutcomeIndeterminate},
	)

	txn, err := h.Service.AuthorizePayment(context.Background(), validRequest("xyz789"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if txn.Status != domain.TransactionStatusFailed {
		t.Errorf("expected status %s, got %s", domain.TransactionStatusFailed, txn.Status)
	}
	if txn.Status == domain.TransactionStatusDeclined {
		t.Error("retry exhaustion must never surface as a decline")
	}
	if txn.RetryCount != 3 {
		t.Errorf("expected retry count 3, got %d", txn.RetryCount)
	}
	if txn.FailureReason != "bank unreachable" {
		t.Errorf("expected failure reason %q, got %q", "bank unreachable", txn.FailureReason)
	}
	if got := h.Bank.Calls(); got != 3 {
		t.Errorf("expected 3 bank calls, got %d", got)
	}
}

func TestAuthorizePayment_IndeterminateThenApproved(t *testing.T) {
	t.Parallel()

	h := newTestHarness()
	h.Bank.Script(
		&domain.BankAuthorization{Outcome: domain.BankOutcomeIndeterminate, Detail: "timeout"},
		&domain.BankAuthorization{Outcome: domain.BankOutcomeApproved, AuthCode: "AUTH42"},
	)

	txn, err := h.Service.AuthorizePayment(context.Background(), validRequest("retry-ok"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if txn.Status != domain.TransactionStatusApproved {
		t.Errorf("expected status %s, got %s", domain.TransactionStatusApproved, txn.Status)
	}
	if txn.RetryCount != 2 {
		t.Errorf("expected retry count 2, got %d", txn.RetryCount)
	}
	if got := h.Bank.Calls(); got != 2 {
		t.Errorf("expected 2 bank calls, got %d", got)
	}
}

func TestAuthorizePayment_BankErrorTreatedAsIndeterminate(t *testing.T) {
	t.Parallel()

	h := newTestHarness()
	h.Bank.AuthorizeError = context.DeadlineExceeded

	txn, err := h.Service.AuthorizePayment(context.Background(), validRequest("bank-err"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if txn.Status != domain.TransactionStatusFailed {
		t.Errorf("expected status %s, got %s", domain.TransactionStatusFailed, txn.Status)
	}
	if got := h.Bank.Calls(); got != 3 {
		t.Errorf("expected 3 bank calls, got %d", got)
	}
}

func TestAuthorizePayment_OuterDeadlineForcesFailedNotPending(t *testing.T) {
	t.Parallel()

	store := NewMockTransactionStore()
	bankClient := NewMockBank()
	bankClient.Script(
		&domain.BankAuthorization{Outcome: domain.BankOutcomeIndeterminate},
		&domain.BankAuthorization{Outcome: domain.BankOutcomeIndeterminate},
	)

	// Backoff far longer than the overall budget, so the deadline fires
	// during the first wait.
	svc := service.NewPaymentService(
		store,
		bankClient,
		service.NewPolicy(testPolicyConfig()),
		NewMockLocker(),
		NewMockTransactionCache(),
		service.NewNotificationService(),
		service.RetryPolicy{
			MaxAttempts:    3,
			BackoffBase:    time.Second,
			BackoffMax:     time.Second,
			OverallTimeout: 20 * time.Millisecond,
		},
	)

	txn, err := svc.AuthorizePayment(context.Background(), validRequest("deadline-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if txn.Status != domain.TransactionStatusFailed {
		t.Errorf("expected status %s, got %s", domain.TransactionStatusFailed, txn.Status)
	}
	if stored := store.GetRecord("deadline-1"); stored == nil || stored.Status == domain.TransactionStatusPending {
		t.Error("a transaction must never be left PENDING after the retry loop gives up")
	}
}

func TestAuthorizePayment_LostCommitRaceReturnsWinner(t *testing.T) {
	t.Parallel()

	h := newTestHarness()
	h.Store.CommitConflict = true

	txn, err := h.Service.AuthorizePayment(context.Background(), validRequest("race-1"))
	if err != nil {
		t.Fatalf("a lost commit race must not surface an error, got: %v", err)
	}

	if txn.Status != domain.TransactionStatusApproved || txn.AuthCode != "WINNER" {
		t.Errorf("expected the winner's record, got status=%s authCode=%q", txn.Status, txn.AuthCode)
	}
}
