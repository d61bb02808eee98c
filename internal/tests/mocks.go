package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"paymentgateway/internal/domain"
	"paymentgateway/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK TRANSACTION STORE
// ──────────────────────────────────────────────

// MockTransactionStore is a mock implementation of TransactionStore.
type MockTransactionStore struct {
	mu   sync.RWMutex
	txns map[string]*domain.Transaction

	// Counters for verification
	GetOrCreateCallCount int32
	CommitCallCount      int32

	// Error injection
	GetOrCreateError error
	CommitError      error
	GetError         error

	// CommitConflict simulates losing a commit race: the record is
	// committed as if by a concurrent winner and ErrInvalidTransition is
	// returned to the caller.
	CommitConflict bool
}

// NewMockTransactionStore creates a new mock transaction store.
func NewMockTransactionStore() *MockTransactionStore {
	return &MockTransactionStore{
		txns: make(map[string]*domain.Transaction),
	}
}

// AddTransaction seeds a transaction into the mock store.
func (m *MockTransactionStore) AddTransaction(txn *domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txns[txn.IdempotencyKey] = txn
}

func (m *MockTransactionStore) GetOrCreate(ctx context.Context, snapshot *domain.Transaction) (*domain.Transaction, bool, error) {
	atomic.AddInt32(&m.GetOrCreateCallCount, 1)
	if m.GetOrCreateError != nil {
		return nil, false, m.GetOrCreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.txns[snapshot.IdempotencyKey]; ok {
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
	m.txns[txn.IdempotencyKey] = txn

	cp := *txn
	return &cp, true, nil
}

func (m *MockTransactionStore) Commit(ctx context.Context, idempotencyKey string, outcome repository.Outcome) (*domain.Transaction, error) {
	atomic.AddInt32(&m.CommitCallCount, 1)
	if m.CommitError != nil {
		return nil, m.CommitError
	}
	if !outcome.Status.Terminal() {
		return nil, repository.ErrInvalidTransition
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	txn, ok := m.txns[idempotencyKey]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if txn.Status.Terminal() {
		return nil, repository.ErrInvalidTransition
	}

	if m.CommitConflict {
		// A concurrent committer won: the record turns terminal, but not
		// with this caller's outcome.
		txn.Status = domain.TransactionStatusApproved
		txn.AuthCode = "WINNER"
		txn.UpdatedAt = time.Now()
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

func (m *MockTransactionStore) Get(ctx context.Context, idempotencyKey string) (*domain.Transaction, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	txn, ok := m.txns[idempotencyKey]
	if !ok {
		return nil, repository.ErrNotFound
	}

	cp := *txn
	return &cp, nil
}

// CountTransactions returns the number of stored transactions.
func (m *MockTransactionStore) CountTransactions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.txns)
}

// GetRecord returns the stored record for test assertions.
func (m *MockTransactionStore) GetRecord(idempotencyKey string) *domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if txn, ok := m.txns[idempotencyKey]; ok {
		cp := *txn
		return &cp
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK BANK CLIENT
// ──────────────────────────────────────────────

// MockBank is a mock implementation of bank.Client. Outcomes are consumed
// from the scripted queue in order; when the queue is empty, the bank
// approves with the default auth code.
type MockBank struct {
	mu     sync.Mutex
	script []*domain.BankAuthorization

	// Counters for verification
	CallCount int32

	// Error injection
	AuthorizeError error

	// DefaultAuthCode is used when no outcome is scripted.
	DefaultAuthCode string
}

// NewMockBank creates a new mock bank client.
func NewMockBank() *MockBank {
	return &MockBank{DefaultAuthCode: "AUTH-MOCK"}
}

// Script appends outcomes to be returned by subsequent Authorize calls.
func (m *MockBank) Script(outcomes ...*domain.BankAuthorization) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, outcomes...)
}

func (m *MockBank) Authorize(ctx context.Context, txn *domain.Transaction) (*domain.BankAuthorization, error) {
	atomic.AddInt32(&m.CallCount, 1)
	if m.AuthorizeError != nil {
		return nil, m.AuthorizeError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.script) > 0 {
		next := m.script[0]
		m.script = m.script[1:]
		return next, nil
	}

	return &domain.BankAuthorization{
		Outcome:  domain.BankOutcomeApproved,
		AuthCode: m.DefaultAuthCode,
	}, nil
}

// Calls returns the number of Authorize calls made.
func (m *MockBank) Calls() int32 {
	return atomic.LoadInt32(&m.CallCount)
}

// ──────────────────────────────────────────────
// MOCK LOCKER
// ──────────────────────────────────────────────

// MockLocker is an in-process implementation of service.Locker with SetNX
// semantics.
type MockLocker struct {
	mu   sync.Mutex
	held map[string]bool

	// Counters for verification
	AcquireCallCount int32

	// FailAcquire makes every acquisition fail, as if another worker
	// holds the lock.
	FailAcquire bool
}

// NewMockLocker creates a new mock locker.
func NewMockLocker() *MockLocker {
	return &MockLocker{held: make(map[string]bool)}
}

func (m *MockLocker) AcquireAuthorizationLock(ctx context.Context, idempotencyKey string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.FailAcquire {
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[idempotencyKey] {
		return false, nil
	}
	m.held[idempotencyKey] = true
	return true, nil
}

func (m *MockLocker) ReleaseAuthorizationLock(ctx context.Context, idempotencyKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, idempotencyKey)
	return nil
}

// ──────────────────────────────────────────────
// MOCK TRANSACTION CACHE
// ──────────────────────────────────────────────

// MockTransactionCache is a mock implementation of service.TransactionCache.
type MockTransactionCache struct {
	mu    sync.RWMutex
	items map[string]*domain.Transaction

	// Counters for verification
	GetCallCount int32
	SetCallCount int32
}

// NewMockTransactionCache creates a new mock transaction cache.
func NewMockTransactionCache() *MockTransactionCache {
	return &MockTransactionCache{items: make(map[string]*domain.Transaction)}
}

func (m *MockTransactionCache) GetTransaction(ctx context.Context, idempotencyKey string) (*domain.Transaction, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if txn, ok := m.items[idempotencyKey]; ok {
		cp := *txn
		return &cp, nil
	}
	return nil, nil
}

func (m *MockTransactionCache) SetTransaction(ctx context.Context, txn *domain.Transaction) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *txn
	m.items[txn.IdempotencyKey] = &cp
	return nil
}
