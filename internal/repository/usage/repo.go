// Package usage persists the monthly UsageRecord as one whole-record JSON
// value. Rollover happens on load: a stored record for a past month is
// discarded and a fresh zeroed one returned, with no archival.
package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Danyalalam/X-automation/internal/domain"
	"github.com/Danyalalam/X-automation/internal/store"
)

// kvStore is the consumer interface for usage persistence (ISP).
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo stores the usage record under a single key.
type Repo struct {
	store     kvStore
	key       string
	planLimit int
	logger    *zap.Logger
}

// New creates a usage repository. keyPrefix namespaces the store key.
func New(s kvStore, keyPrefix string, planLimit int, logger *zap.Logger) *Repo {
	return &Repo{
		store:     s,
		key:       keyPrefix + "usage",
		planLimit: planLimit,
		logger:    logger,
	}
}

// Load reads the current usage record. It never fails the caller: a missing
// or corrupt record degrades to a fresh zeroed one, and a record stored for a
// previous period is replaced by a fresh one for the current period key.
func (r *Repo) Load(ctx context.Context) domain.UsageRecord {
	currentKey := domain.PeriodKeyAt(time.Now())

	data, err := r.store.Get(ctx, r.key)
	if err != nil {
		if !errors.Is(err, store.ErrKeyNotFound) {
			r.logger.Warn("Failed to read usage record, starting fresh",
				zap.String("key", r.key), zap.Error(err))
		}
		return domain.NewUsageRecord(currentKey, r.planLimit)
	}

	var rec domain.UsageRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		r.logger.Warn("Corrupt usage record, starting fresh",
			zap.String("key", r.key), zap.Error(err))
		return domain.NewUsageRecord(currentKey, r.planLimit)
	}

	if rec.PeriodKey != currentKey {
		r.logger.Info("Usage period rolled over",
			zap.String("previous", rec.PeriodKey),
			zap.String("current", currentKey))
		return domain.NewUsageRecord(currentKey, r.planLimit)
	}

	if rec.DailyPosts == nil {
		rec.DailyPosts = map[string]int{}
	}
	// Config is the source of truth for the ceiling, not the stored record.
	rec.PlanLimit = r.planLimit
	return rec
}

// Save writes the full record atomically (whole-record replace).
func (r *Repo) Save(ctx context.Context, rec domain.UsageRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal usage record: %w", err)
	}
	if err := r.store.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("save usage record: %w", err)
	}
	return nil
}

// Reset zeroes the record for the current period, independent of rollover.
func (r *Repo) Reset(ctx context.Context) (domain.UsageRecord, error) {
	rec := domain.NewUsageRecord(domain.PeriodKeyAt(time.Now()), r.planLimit)
	if err := r.Save(ctx, rec); err != nil {
		return rec, err
	}
	return rec, nil
}
