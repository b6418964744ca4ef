package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/platform/logger"
)

// RetryPolicy bounds how store operations are retried and how long a single
// attempt may wait on the database.
type RetryPolicy struct {
	// MaxTransientRetries is the number of extra attempts after a transient failure.
	MaxTransientRetries int

	// MaxConflictRetries is the number of extra attempts after a conflict.
	// Each retry re-runs the whole operation, so it re-reads fresh state.
	MaxConflictRetries int

	// BaseDelay is the wait before the first transient retry. It doubles on
	// each subsequent one. Conflicts are retried immediately.
	BaseDelay time.Duration

	// OperationTimeout bounds each attempt. Zero disables the bound.
	OperationTimeout time.Duration
}

// DefaultRetryPolicy returns two transient retries, one conflict retry and a
// five second per-attempt timeout.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxTransientRetries: 2,
		MaxConflictRetries:  1,
		BaseDelay:           50 * time.Millisecond,
		OperationTimeout:    5 * time.Second,
	}
}

// sqlStateError is implemented by driver errors that carry a SQLSTATE code,
// such as *pgconn.PgError.
type sqlStateError interface {
	SQLState() string
}

// Classify wraps err with ErrTransient or ErrConflict when it is a timeout,
// a dropped connection or a serialization failure. Other errors are returned
// unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrTransient) || errors.Is(err, domain.ErrConflict) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}

	var se sqlStateError
	if errors.As(err, &se) {
		code := se.SQLState()
		switch {
		case code == "40001" || code == "40P01":
			return fmt.Errorf("%w: %w", ErrConflict, err)
		case code == "57014" || code == "53300" || code == "57P03" || strings.HasPrefix(code, "08"):
			return fmt.Errorf("%w: %w", ErrTransient, err)
		}
	}
	return err
}

// WithRetry runs fn under the policy. Each attempt gets its own timeout;
// transient failures are retried with exponential backoff and conflicts are
// retried immediately, each up to their limit. Any other error, and any error
// once ctx itself is done, is returned at once.
func WithRetry(ctx context.Context, policy RetryPolicy, operation string, fn func(ctx context.Context) error) error {
	log := logger.FromContext(ctx)

	transientRetries, conflictRetries := 0, 0
	delay := policy.BaseDelay

	for {
		err := Classify(runAttempt(ctx, policy.OperationTimeout, fn))
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}

		switch {
		case errors.Is(err, domain.ErrConflict) && conflictRetries < policy.MaxConflictRetries:
			conflictRetries++
			log.Warn("retrying after conflict",
				slog.String("operation", operation),
				slog.Int("attempt", conflictRetries),
				slog.String("error", err.Error()))

		case errors.Is(err, domain.ErrTransient) && transientRetries < policy.MaxTransientRetries:
			transientRetries++
			log.Warn("retrying after transient failure",
				slog.String("operation", operation),
				slog.Int("attempt", transientRetries),
				slog.Duration("delay", delay),
				slog.String("error", err.Error()))

			if delay > 0 {
				timer := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return err
				case <-timer.C:
				}
				delay *= 2
			}

		default:
			return err
		}
	}
}

func runAttempt(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}
