// Package cursor persists the mention watermark: the highest mention id the
// agent has already processed. Advanced monotonically, never rolled back
// except by an explicit operator reset.
package cursor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Danyalalam/X-automation/internal/store"
)

// kvStore is the consumer interface for cursor persistence (ISP).
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}

// Repo stores the mention cursor under a single key.
type Repo struct {
	store kvStore
	key   string
}

// New creates a cursor repository. keyPrefix namespaces the store key.
func New(s kvStore, keyPrefix string) *Repo {
	return &Repo{store: s, key: keyPrefix + "mention_cursor"}
}

// Get returns the last processed mention id, or "" when none is stored.
func (r *Repo) Get(ctx context.Context) (string, error) {
	data, err := r.store.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("read mention cursor: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Advance records id as the last processed mention.
func (r *Repo) Advance(ctx context.Context, id string) error {
	if err := r.store.Set(ctx, r.key, []byte(id)); err != nil {
		return fmt.Errorf("advance mention cursor: %w", err)
	}
	return nil
}

// Reset clears the cursor so the next sweep starts from scratch.
func (r *Repo) Reset(ctx context.Context) error {
	if err := r.store.Del(ctx, r.key); err != nil {
		return fmt.Errorf("reset mention cursor: %w", err)
	}
	return nil
}
