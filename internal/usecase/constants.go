package usecase

import (
	"errors"
	"time"
)

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 30 * time.Second

	// DefaultRateCacheTTL is how long a currency's rate list stays cached
	DefaultRateCacheTTL = 10 * time.Minute

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// RunResultName is the name of the result returned by a successful revaluation run
	RunResultName = "Created revaluation lines"

	// SystemActor is recorded when a call carries no authenticated user
	SystemActor = "system"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")
