package memory

import (
	"context"
	"sync"
	"time"

	"paymentgateway/internal/domain"
	"paymentgateway/internal/repository"
)

// TransactionStore is an in-memory implementation of
// repository.TransactionStore, used for local development and tests. All
// operations run inside one mutex, which trivially satisfies the per-key
// serialization contract: the critical sections do no I/O.
type TransactionStore struct {
	mu   sync.RWMutex
	txns map[string]*domain.Transaction
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		txns: make(map[string]*domain.Transaction),
	}
}

// GetOrCreate returns the transaction for the snapshot's key, creating a
// PENDING record if none exists yet.
func (s *TransactionStore) GetOrCreate(ctx context.Context, snapshot *domain.Transaction) (*domain.Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.txns[snapshot.IdempotencyKey]; ok {
		cp := *existing
		return &cp, false, nil
	}

	now := time.Now()
	txn := &domain.Transaction{
		IdempotencyKey: snapshot.IdempotencyKey,
		AmountMinor:    snapshot.AmountMinor,
		Currency:       snapshot.Currency,
		InstrumentRef:  snapshot.InstrumentRef,
		MerchantRef:    snapshot.MerchantRef,
		Status:         domain.TransactionStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.txns[txn.IdempotencyKey] = txn

	cp := *txn
	return &cp, true, nil
}

// Commit transitions a PENDING transaction to a terminal status.
func (s *TransactionStore) Commit(ctx context.Context, idempotencyKey string, outcome repository.Outcome) (*domain.Transaction, error) {
	if !outcome.Status.Terminal() {
		return nil, repository.ErrInvalidTransition
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.txns[idempotencyKey]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if txn.Status.Terminal() {
		return nil, repository.ErrInvalidTransition
	}

	txn.Status = outcome.Status
	txn.AuthCode = outcome.AuthCode
	txn.FailureReason = outcome.FailureReason
	txn.RetryCount = outcome.Attempts
	txn.UpdatedAt = time.Now()

	cp := *txn
	return &cp, nil
}

// Get retrieves a transaction by idempotency key.
func (s *TransactionStore) Get(ctx context.Context, idempotencyKey string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txn, ok := s.txns[idempotencyKey]
	if !ok {
		return nil, repository.ErrNotFound
	}

	cp := *txn
	return &cp, nil
}

// Ensure the interface is satisfied.
var _ repository.TransactionStore = (*TransactionStore)(nil)
