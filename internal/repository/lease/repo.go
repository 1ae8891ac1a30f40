// Package lease implements the advisory single-instance lock: a durable
// record carrying an owner id and a freshness timestamp, checked once at
// startup. Two processes starting within the staleness window can still both
// proceed; that race is a documented limitation of the point-in-time check.
package lease

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Danyalalam/X-automation/internal/domain"
	"github.com/Danyalalam/X-automation/internal/store"
)

// kvStore is the consumer interface for lease persistence (ISP).
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}

// Record is the durable lease payload.
type Record struct {
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"created_at"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// Repo manages the instance lease.
type Repo struct {
	store     kvStore
	key       string
	owner     string
	staleness time.Duration
	logger    *zap.Logger
}

// New creates a lease repository with a fresh owner id for this process.
func New(s kvStore, keyPrefix string, staleness time.Duration, logger *zap.Logger) *Repo {
	return &Repo{
		store:     s,
		key:       keyPrefix + "instance_lease",
		owner:     uuid.NewString(),
		staleness: staleness,
		logger:    logger,
	}
}

// Owner returns this process's lease owner id.
func (r *Repo) Owner() string { return r.owner }

// Acquire claims the lease. Returns domain.ErrInstanceRunning when a lease
// held by another owner is still fresh. An unreadable lease record is
// treated as absent.
func (r *Repo) Acquire(ctx context.Context) error {
	data, err := r.store.Get(ctx, r.key)
	if err == nil {
		var rec Record
		if uerr := json.Unmarshal(data, &rec); uerr != nil {
			r.logger.Warn("Unreadable lease record, claiming", zap.Error(uerr))
		} else if rec.Owner != r.owner && time.Since(rec.RefreshedAt) < r.staleness {
			return fmt.Errorf("lease held by %s since %s: %w",
				rec.Owner, rec.RefreshedAt.Format(time.RFC3339), domain.ErrInstanceRunning)
		}
	} else if !errors.Is(err, store.ErrKeyNotFound) {
		return fmt.Errorf("read lease: %w", err)
	}

	now := time.Now().UTC()
	return r.write(ctx, Record{Owner: r.owner, CreatedAt: now, RefreshedAt: now})
}

// Refresh updates the freshness timestamp. Called from the heartbeat loop.
func (r *Repo) Refresh(ctx context.Context) error {
	data, err := r.store.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			// Lease vanished (operator cleanup); reclaim it.
			now := time.Now().UTC()
			return r.write(ctx, Record{Owner: r.owner, CreatedAt: now, RefreshedAt: now})
		}
		return fmt.Errorf("read lease: %w", err)
	}

	var rec Record
	if uerr := json.Unmarshal(data, &rec); uerr == nil && rec.Owner != r.owner {
		// Someone else claimed it after our startup check. Surface, don't fight.
		return fmt.Errorf("lease taken over by %s: %w", rec.Owner, domain.ErrInstanceRunning)
	} else if uerr == nil {
		rec.RefreshedAt = time.Now().UTC()
		return r.write(ctx, rec)
	}

	now := time.Now().UTC()
	return r.write(ctx, Record{Owner: r.owner, CreatedAt: now, RefreshedAt: now})
}

// Release drops the lease on clean shutdown. Best effort.
func (r *Repo) Release(ctx context.Context) {
	if err := r.store.Del(ctx, r.key); err != nil {
		r.logger.Warn("Failed to release lease", zap.Error(err))
	}
}

func (r *Repo) write(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal lease: %w", err)
	}
	if err := r.store.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("write lease: %w", err)
	}
	return nil
}
