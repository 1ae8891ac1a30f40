package quota

import (
	"context"

	"github.com/Danyalalam/X-automation/internal/domain"
)

// RecordStore is the persistence surface the guard consumes.
type RecordStore interface {
	Load(ctx context.Context) domain.UsageRecord
	Save(ctx context.Context, rec domain.UsageRecord) error
	Reset(ctx context.Context) (domain.UsageRecord, error)
}
