package redis

import (
	"paymentgateway/internal/service"
)

// Ensure concrete types satisfy the orchestrator's contracts.
var (
	_ service.Locker           = (*LockStore)(nil)
	_ service.TransactionCache = (*CacheStore)(nil)
)
