package repository

import (
	"context"

	"paymentgateway/internal/domain"
)

// Outcome carries the terminal state a caller wants to commit for a
// transaction. Attempts records how many bank calls were made.
type Outcome struct {
	Status        domain.TransactionStatus
	AuthCode      string
	FailureReason string
	Attempts      int
}

// TransactionStore defines the persistence operations for payment
// transactions. Implementations must serialize operations per idempotency
// key: concurrent GetOrCreate calls for one key create exactly one PENDING
// record, and at most one Commit per key ever succeeds.
type TransactionStore interface {
	// GetOrCreate atomically returns the transaction for the snapshot's
	// idempotency key, creating it in PENDING state if it does not exist.
	// The boolean is true iff this call created the record.
	GetOrCreate(ctx context.Context, snapshot *domain.Transaction) (*domain.Transaction, bool, error)

	// Commit transitions a PENDING transaction to the terminal state in
	// outcome and returns the updated record. Returns ErrNotFound if no
	// transaction exists for the key, and ErrInvalidTransition if the
	// transaction is already terminal or the outcome status is not
	// terminal. A terminal record is never overwritten.
	Commit(ctx context.Context, idempotencyKey string, outcome Outcome) (*domain.Transaction, error)

	// Get retrieves a transaction by idempotency key.
	// Returns ErrNotFound if no transaction exists for the key.
	Get(ctx context.Context, idempotencyKey string) (*domain.Transaction, error)
}
