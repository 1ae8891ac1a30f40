// Package retry wraps platform calls with the single-retry rate-limit policy:
// on a rate-limit failure, pause for the server-supplied duration (or a
// default) and retry exactly once. Everything else propagates unchanged.
package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Danyalalam/X-automation/internal/domain"
	"github.com/Danyalalam/X-automation/internal/metrics"
)

// DefaultRetryAfter is used when the rate-limit response carries no hint.
const DefaultRetryAfter = 60 * time.Second

// Retrier applies the rate-limit retry policy. Quota accounting happens at
// the orchestration layer exactly once, regardless of physical retries here.
type Retrier struct {
	defaultPause time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
	logger       *zap.Logger
}

// New creates a Retrier with the default pause.
func New(logger *zap.Logger) *Retrier {
	return &Retrier{
		defaultPause: DefaultRetryAfter,
		sleep:        ctxSleep,
		logger:       logger,
	}
}

// Do invokes op; if it fails with a rate-limit signal, sleeps for the
// carried retry-after (default when absent), then retries once. The sleep is
// bounded by the server-supplied value and cancellable through ctx.
func Do[T any](r *Retrier, ctx context.Context, op func(ctx context.Context) (T, error)) (T, error) {
	result, err := op(ctx)
	if err == nil {
		return result, nil
	}

	var rl *domain.RateLimitError
	if !errors.As(err, &rl) {
		return result, err
	}

	pause := rl.RetryAfter
	if pause <= 0 {
		pause = r.defaultPause
	}

	r.logger.Warn("Rate limited, pausing before single retry",
		zap.Duration("pause", pause))
	metrics.RateLimitRetriesTotal.Inc()

	if serr := r.sleep(ctx, pause); serr != nil {
		return result, serr
	}
	return op(ctx)
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
