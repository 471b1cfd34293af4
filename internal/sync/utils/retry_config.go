package utils

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-logr/logr"
	"github.com/jackc/pgx/v5/pgconn"

	"cloudsync-pg-backend/internal/domain/ports"
	"cloudsync-pg-backend/internal/sync/types"
)

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() types.RetryConfig {
	return types.RetryConfig{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

func newBackOff(config types.RetryConfig) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	if config.InitialDelay > 0 {
		b.InitialInterval = config.InitialDelay
	}
	if config.MaxDelay > 0 {
		b.MaxInterval = config.MaxDelay
	}
	if config.BackoffFactor >= 1 {
		b.Multiplier = config.BackoffFactor
	}
	b.RandomizationFactor = 0.2
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// ExecuteWithRetry runs operation until it succeeds, fails permanently, runs
// out of retries or ctx ends. Only errors IsRetryableError accepts are retried.
func ExecuteWithRetry(ctx context.Context, config types.RetryConfig, logger logr.Logger, operation func(ctx context.Context) error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := operation(ctx)
		if err != nil && !IsRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	var policy backoff.BackOff = newBackOff(config)
	policy = backoff.WithMaxRetries(policy, uint64(max(config.MaxRetries, 0)))
	notify := func(err error, next time.Duration) {
		logger.V(1).Info("Retrying after transient failure", "attempt", attempt, "retryIn", next, "error", err.Error())
	}
	return backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify)
}

// IsRetryableError reports whether err looks transient: serialization
// failures, deadlocks, lost connections and timeouts. Programmer errors,
// conflicts and missing records are permanent.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, ports.ErrInvalidArgument),
		errors.Is(err, ports.ErrAlreadyExists),
		errors.Is(err, ports.ErrNotFound),
		errors.Is(err, ports.ErrRegistryClosed):
		return false
	case errors.Is(err, context.DeadlineExceeded):
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "40001", pgErr.Code == "40P01":
			return true
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "53"), pgErr.Code == "57P01":
			return true
		default:
			return false
		}
	}

	errMsg := strings.ToLower(err.Error())

	// Check for permanent database errors (no retry)
	if strings.Contains(errMsg, "sqlstate 23") ||
		strings.Contains(errMsg, "constraint") && strings.Contains(errMsg, "violat") ||
		strings.Contains(errMsg, "duplicate key") {
		return false
	}

	// Check for temporary errors (retry)
	return strings.Contains(errMsg, "temporary") ||
		strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "connection") ||
		strings.Contains(errMsg, "network") ||
		strings.Contains(errMsg, "unavailable") ||
		strings.Contains(errMsg, "database is locked") ||
		strings.Contains(errMsg, "deadline exceeded")
}
