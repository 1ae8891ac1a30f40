package orchestrator

import (
	"context"

	"github.com/Danyalalam/X-automation/internal/domain"
)

// QuotaGuard is the permission surface consulted before outbound operations.
type QuotaGuard interface {
	Authorize(ctx context.Context, kind domain.OperationKind) bool
	Snapshot(ctx context.Context) domain.UsageRecord
}

// CursorStore tracks the mention watermark.
type CursorStore interface {
	Get(ctx context.Context) (string, error)
	Advance(ctx context.Context, id string) error
}
