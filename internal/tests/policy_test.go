package tests

import (
	"context"
	"errors"
	"strings"
	"testing"

	"paymentgateway/internal/service"
)

// ──────────────────────────────────────────────
// 3. POLICY EVALUATION
// ──────────────────────────────────────────────

func TestPolicy_Evaluate(t *testing.T) {
	t.Parallel()

	policy := service.NewPolicy(testPolicyConfig())

	tests := []struct {
		name    string
		mutate  func(*service.AuthorizePaymentRequest)
		wantErr error
	}{
		{
			name:    "valid request",
			mutate:  func(r *service.AuthorizePaymentRequest) {},
			wantErr: nil,
		},
		{
			name:    "empty idempotency key",
			mutate:  func(r *service.AuthorizePaymentRequest) { r.IdempotencyKey = "" },
			wantErr: service.ErrInvalidIdempotencyKey,
		},
		{
			name:    "zero amount",
			mutate:  func(r *service.AuthorizePaymentRequest) { r.AmountMinor = 0 },
			wantErr: service.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			mutate:  func(r *service.AuthorizePaymentRequest) { r.AmountMinor = -100 },
			wantErr: service.ErrInvalidAmount,
		},
		{
			name:    "amount over limit",
			mutate:  func(r *service.AuthorizePaymentRequest) { r.AmountMinor = 2_000_000 },
			wantErr: service.ErrInvalidAmount,
		},
		{
			name:    "unsupported currency",
			mutate:  func(r *service.AuthorizePaymentRequest) { r.Currency = "XXX" },
			wantErr: service.ErrUnsupportedCurrency,
		},
		{
			name:    "empty instrument",
			mutate:  func(r *service.AuthorizePaymentRequest) { r.InstrumentRef = "" },
			wantErr: service.ErrInvalidInstrument,
		},
		{
			name:    "oversized instrument",
			mutate:  func(r *service.AuthorizePaymentRequest) { r.InstrumentRef = strings.Repeat("x", 65) },
			wantErr: service.ErrInvalidInstrument,
		},
		{
			name:    "unknown merchant",
			mutate:  func(r *service.AuthorizePaymentRequest) { r.MerchantRef = "merchant-nope" },
			wantErr: service.ErrUnknownMerchant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest("policy-key")
			tt.mutate(&req)

			err := policy.Evaluate(req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAuthorizePayment_PolicyRejectionPersistsNothing(t *testing.T) {
	t.Parallel()

	h := newTestHarness()

	req := validRequest("rejected-1")
	req.Currency = "XXX"

	_, err := h.Service.AuthorizePayment(context.Background(), req)
	if !errors.Is(err, service.ErrUnsupportedCurrency) {
		t.Fatalf("expected ErrUnsupportedCurrency, got %v", err)
	}

	if h.Store.CountTransactions() != 0 {
		t.Errorf("a rejected request must not create a transaction, store has %d", h.Store.CountTransactions())
	}
	if got := h.Bank.Calls(); got != 0 {
		t.Errorf("a rejected request must never reach the bank, got %d calls", got)
	}
	if !service.IsValidationError(err) {
		t.Errorf("policy rejections must classify as validation errors")
	}
}

func TestAuthorizePayment_ZeroAmountRejectedBeforeStore(t *testing.T) {
	t.Parallel()

	h := newTestHarness()

	req := validRequest("rejected-2")
	req.AmountMinor = 0

	_, err := h.Service.AuthorizePayment(context.Background(), req)
	if !errors.Is(err, service.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if h.Store.GetOrCreateCallCount != 0 {
		t.Error("validation must fail before the store is touched")
	}
}
