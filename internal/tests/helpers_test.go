package tests

import (
	"time"

	"paymentgateway/internal/config"
	"paymentgateway/internal/service"
)

// testHarness bundles a PaymentService with its mocked collaborators.
type testHarness struct {
	Service *service.PaymentService
	Store   *MockTransactionStore
	Bank    *MockBank
	Locker  *MockLocker
	Cache   *MockTransactionCache
}

func testPolicyConfig() config.PolicyConfig {
	return config.PolicyConfig{
		SupportedCurrencies: []string{"USD", "EUR"},
		KnownMerchants:      []string{"merchant-demo", "merchant-1"},
		MaxAmountMinor:      1_000_000,
		MaxInstrumentLength: 64,
	}
}

func testRetryPolicy() service.RetryPolicy {
	return service.RetryPolicy{
		MaxAttempts:    3,
		BackoffBase:    time.Millisecond,
		BackoffMax:     5 * time.Millisecond,
		OverallTimeout: 2 * time.Second,
	}
}

// newTestHarness wires a PaymentService over fresh mocks.
func newTestHarness() *testHarness {
	store := NewMockTransactionStore()
	bankClient := NewMockBank()
	locker := NewMockLocker()
	cache := NewMockTransactionCache()

	svc := service.NewPaymentService(
		store,
		bankClient,
		service.NewPolicy(testPolicyConfig()),
		locker,
		cache,
		service.NewNotificationService(),
		testRetryPolicy(),
	)

	return &testHarness{
		Service: svc,
		Store:   store,
		Bank:    bankClient,
		Locker:  locker,
		Cache:   cache,
	}
}

// validRequest returns a request that passes every policy check.
func validRequest(key string) service.AuthorizePaymentRequest {
	return service.AuthorizePaymentRequest{
		IdempotencyKey: key,
		AmountMinor:    5000,
		Currency:       "USD",
		InstrumentRef:  "tok_1",
		MerchantRef:    "merchant-demo",
	}
}
