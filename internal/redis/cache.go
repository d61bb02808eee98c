package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"paymentgateway/internal/domain"
)

// CacheStore caches terminal payment transactions in Redis. Terminal
// records are immutable, so a long TTL is safe; PENDING records are never
// cached.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// TransactionCacheTTL bounds how long a terminal transaction stays cached.
const TransactionCacheTTL = 24 * time.Hour

const transactionCachePrefix = "cache:txn:"

// cachedTransaction is the JSON shape stored in Redis.
type cachedTransaction struct {
	IdempotencyKey string    `json:"idempotency_key"`
	AmountMinor    int64     `json:"amount_minor"`
	Currency       string    `json:"currency"`
	InstrumentRef  string    `json:"instrument_ref"`
	MerchantRef    string    `json:"merchant_ref"`
	Status         string    `json:"status"`
	AuthCode       string    `json:"auth_code,omitempty"`
	FailureReason  string    `json:"failure_reason,omitempty"`
	RetryCount     int       `json:"retry_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// GetTransaction retrieves a cached transaction. Returns (nil, nil) on a
// cache miss.
func (s *CacheStore) GetTransaction(ctx context.Context, idempotencyKey string) (*domain.Transaction, error) {
	key := transactionCachePrefix + idempotencyKey
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var cached cachedTransaction
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}

	return &domain.Transaction{
		IdempotencyKey: cached.IdempotencyKey,
		AmountMinor:    cached.AmountMinor,
		Currency:       cached.Currency,
		InstrumentRef:  cached.InstrumentRef,
		MerchantRef:    cached.MerchantRef,
		Status:         domain.TransactionStatus(cached.Status),
		AuthCode:       cached.AuthCode,
		FailureReason:  cached.FailureReason,
		RetryCount:     cached.RetryCount,
		CreatedAt:      cached.CreatedAt,
		UpdatedAt:      cached.UpdatedAt,
	}, nil
}

// SetTransaction stores a terminal transaction in cache. Non-terminal
// transactions are ignored.
func (s *CacheStore) SetTransaction(ctx context.Context, txn *domain.Transaction) error {
	if !txn.Status.Terminal() {
		return nil
	}

	cached := cachedTransaction{
		IdempotencyKey: txn.IdempotencyKey,
		AmountMinor:    txn.AmountMinor,
		Currency:       txn.Currency,
		InstrumentRef:  txn.InstrumentRef,
		MerchantRef:    txn.MerchantRef,
		Status:         string(txn.Status),
		AuthCode:       txn.AuthCode,
		FailureReason:  txn.FailureReason,
		RetryCount:     txn.RetryCount,
		CreatedAt:      txn.CreatedAt,
		UpdatedAt:      txn.UpdatedAt,
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}

	key := transactionCachePrefix + txn.IdempotencyKey
	return s.client.Set(ctx, key, data, TransactionCacheTTL).Err()
}

// InvalidateTransaction removes a transaction from cache.
func (s *CacheStore) InvalidateTransaction(ctx context.Context, idempotencyKey string) error {
	key := transactionCachePrefix + idempotencyKey
	return s.client.Del(ctx, key).Err()
}
