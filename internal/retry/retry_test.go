package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Danyalalam/X-automation/internal/domain"
)

func newTestRetrier(slept *[]time.Duration) *Retrier {
	r := New(zap.NewNop())
	r.sleep = func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	return r
}

func TestDo_RateLimitedOnceThenSuccess(t *testing.T) {
	var slept []time.Duration
	r := newTestRetrier(&slept)

	calls := 0
	result, err := Do(r, context.Background(), func(_ context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", domain.NewRateLimited(2 * time.Second)
		}
		return "posted", nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "posted" {
		t.Errorf("expected success result, got %q", result)
	}
	if calls != 2 {
		t.Errorf("expected exactly 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != 2*time.Second {
		t.Errorf("expected one 2s pause, got %v", slept)
	}
}

func TestDo_MissingRetryAfterUsesDefault(t *testing.T) {
	var slept []time.Duration
	r := newTestRetrier(&slept)

	calls := 0
	_, _ = Do(r, context.Background(), func(_ context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", domain.NewRateLimited(0)
		}
		return "ok", nil
	})

	if len(slept) != 1 || slept[0] != DefaultRetryAfter {
		t.Errorf("expected one default pause of %s, got %v", DefaultRetryAfter, slept)
	}
}

func TestDo_OtherErrorsPropagateWithoutRetry(t *testing.T) {
	var slept []time.Duration
	r := newTestRetrier(&slept)

	boom := errors.New("network down")
	calls := 0
	_, err := Do(r, context.Background(), func(_ context.Context) (string, error) {
		calls++
		return "", boom
	})

	if !errors.Is(err, boom) {
		t.Fatalf("expected original error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 call, got %d", calls)
	}
	if len(slept) != 0 {
		t.Errorf("expected no pause, got %v", slept)
	}
}

func TestDo_SecondRateLimitPropagates(t *testing.T) {
	var slept []time.Duration
	r := newTestRetrier(&slept)

	calls := 0
	_, err := Do(r, context.Background(), func(_ context.Context) (string, error) {
		calls++
		return "", domain.NewRateLimited(time.Second)
	})

	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected rate-limit error after final attempt, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected exactly 2 calls (no infinite loop), got %d", calls)
	}
	if len(slept) != 1 {
		t.Errorf("expected exactly one pause, got %v", slept)
	}
}

func TestDo_SleepCancellableViaContext(t *testing.T) {
	r := New(zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(r, ctx, func(_ context.Context) (string, error) {
		return "", domain.NewRateLimited(time.Hour)
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
