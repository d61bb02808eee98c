package bank

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"paymentgateway/internal/domain"
)

// MockClient is a mock bank for local development. It approves every
// authorization with a generated auth code.
type MockClient struct{}

// NewMockClient creates a new mock bank client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Authorize always approves.
func (c *MockClient) Authorize(ctx context.Context, txn *domain.Transaction) (*domain.BankAuthorization, error) {
	code := "AUTH-" + strings.ToUpper(uuid.New().String()[:8])
	return &domain.BankAuthorization{
		Outcome:  domain.BankOutcomeApproved,
		AuthCode: code,
	}, nil
}

// Ensure the interface is satisfied.
var _ Client = (*MockClient)(nil)
