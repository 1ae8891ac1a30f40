package store

import (
	"context"
	"time"
)

// Store is the durable key-value facade behind all persisted state.
// Set replaces the whole value atomically: a crash mid-write never leaves a
// partial value observable by the next Get.
type Store interface {
	Pinger
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}
