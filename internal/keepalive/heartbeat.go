package keepalive

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Danyalalam/X-automation/internal/domain"
)

// UsageReader exposes the current quota counters for heartbeat logging.
type UsageReader interface {
	Snapshot(ctx context.Context) domain.UsageRecord
}

// LeaseRefresher renews the single-instance lease.
type LeaseRefresher interface {
	Refresh(ctx context.Context) error
}

// Heartbeat periodically logs usage, renews the instance lease and
// optionally pings the liveness endpoint to keep the host awake.
type Heartbeat struct {
	usage    UsageReader
	lease    LeaseRefresher
	interval time.Duration
	selfURL  string
	client   *http.Client
	logger   *zap.Logger
}

// NewHeartbeat creates the heartbeat loop. selfURL may be empty to skip
// the self-ping.
func NewHeartbeat(usage UsageReader, lease LeaseRefresher, interval time.Duration, selfURL string, logger *zap.Logger) *Heartbeat {
	return &Heartbeat{
		usage:    usage,
		lease:    lease,
		interval: interval,
		selfURL:  selfURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

// Run beats until ctx is cancelled. The first beat happens after one full
// interval; startup already logs the initial state.
func (h *Heartbeat) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.beat(ctx)
		}
	}
}

func (h *Heartbeat) beat(ctx context.Context) {
	rec := h.usage.Snapshot(ctx)
	h.logger.Info("Heartbeat",
		zap.String("period", rec.PeriodKey),
		zap.Int("posts", rec.PostsCount),
		zap.Int("replies", rec.RepliesCount),
		zap.Int("remaining", rec.Remaining()),
	)

	if h.lease != nil {
		if err := h.lease.Refresh(ctx); err != nil {
			h.logger.Warn("Lease refresh failed", zap.Error(err))
		}
	}

	if h.selfURL != "" {
		if err := h.selfPing(ctx); err != nil {
			h.logger.Warn("Self ping failed", zap.Error(err))
		}
	}
}

func (h *Heartbeat) selfPing(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.selfURL, nil)
	if err != nil {
		return err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("self ping status %d", resp.StatusCode)
	}
	return nil
}
