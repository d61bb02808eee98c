package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireAuthorizationLock attempts to acquire the authorization lock for
// the given idempotency key. Returns true if the lock was acquired, false
// if another worker holds it. The TTL bounds how long a crashed holder can
// block the key.
func (s *LockStore) AcquireAuthorizationLock(ctx context.Context, idempotencyKey string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:payment:%s", idempotencyKey)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseAuthorizationLock releases the authorization lock for the given
// idempotency key.
func (s *LockStore) ReleaseAuthorizationLock(ctx context.Context, idempotencyKey string) error {
	key := fmt.Sprintf("lock:payment:%s", idempotencyKey)

	return s.client.Del(ctx, key).Err()
}
