// Package quota implements the usage-quota guard: the decision function
// consulted before every outbound platform operation.
package quota

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Danyalalam/X-automation/internal/domain"
	"github.com/Danyalalam/X-automation/internal/metrics"
)

// Guard fuses permission and accounting into one atomic step: the increment
// *is* the authorization, so a caller can never observe "authorized" and then
// race past the limit. All mutation of the usage record goes through here.
type Guard struct {
	mu      sync.Mutex
	records RecordStore
	logger  *zap.Logger
}

// New creates a quota guard over the given record store.
func New(records RecordStore, logger *zap.Logger) *Guard {
	return &Guard{records: records, logger: logger}
}

// Authorize decides whether an operation of the given kind may proceed, and
// records it when granted. Posts and replies share the monthly plan-limit
// ceiling; reads are always permitted and only counted. A failed save after a
// grant is logged but does not revoke the grant.
func (g *Guard) Authorize(ctx context.Context, kind domain.OperationKind) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec := g.records.Load(ctx)

	switch kind {
	case domain.OpPost, domain.OpReply:
		if rec.PostsCount >= rec.PlanLimit {
			metrics.QuotaDenialsTotal.WithLabelValues(string(kind)).Inc()
			g.logger.Warn("Monthly post limit reached, operation denied",
				zap.String("kind", string(kind)),
				zap.Int("posts_count", rec.PostsCount),
				zap.Int("plan_limit", rec.PlanLimit),
			)
			return false
		}
		rec.PostsCount++
		if kind == domain.OpReply {
			rec.RepliesCount++
		} else {
			day := domain.DayKeyAt(time.Now())
			rec.DailyPosts[day]++
			// Telemetry, not enforcement: a second primary post the same day
			// is surfaced but never blocked.
			if rec.DailyPosts[day] > 1 {
				g.logger.Warn("More than one primary post today",
					zap.String("day", day),
					zap.Int("count", rec.DailyPosts[day]),
				)
			}
		}
	case domain.OpRead:
		rec.ReadsCount++
	default:
		g.logger.Warn("Unknown operation kind denied", zap.String("kind", string(kind)))
		return false
	}

	if err := g.records.Save(ctx, rec); err != nil {
		g.logger.Error("Failed to persist usage record after grant", zap.Error(err))
	}
	metrics.QuotaPostsRemaining.Set(float64(rec.Remaining()))
	return true
}

// Snapshot returns a copy of the current usage record without any accounting.
func (g *Guard) Snapshot(ctx context.Context) domain.UsageRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.records.Load(ctx).Clone()
}

// Reset zeroes the counters on operator request.
func (g *Guard) Reset(ctx context.Context) (domain.UsageRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, err := g.records.Reset(ctx)
	return rec.Clone(), err
}
