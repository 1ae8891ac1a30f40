package usage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Danyalalam/X-automation/internal/domain"
	"github.com/Danyalalam/X-automation/internal/store"
)

// --- Mock ---

type mockStore struct {
	data map[string][]byte
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := m.data[key]
	if !ok {
		return nil, store.ErrKeyNotFound
	}
	return data, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

// --- Tests ---

func TestLoad_MissingRecordStartsFresh(t *testing.T) {
	repo := New(newMockStore(), "koiyu:", 100, zap.NewNop())

	rec := repo.Load(context.Background())

	if rec.PeriodKey != domain.PeriodKeyAt(time.Now()) {
		t.Errorf("expected current period key, got %q", rec.PeriodKey)
	}
	if rec.PostsCount != 0 || rec.ReadsCount != 0 || rec.RepliesCount != 0 {
		t.Errorf("expected zeroed counters, got %+v", rec)
	}
	if rec.PlanLimit != 100 {
		t.Errorf("expected plan limit 100, got %d", rec.PlanLimit)
	}
}

func TestLoad_RolloverResetsCounters(t *testing.T) {
	ms := newMockStore()
	stale := domain.UsageRecord{
		PeriodKey:    "2000-01",
		PostsCount:   42,
		ReadsCount:   7,
		RepliesCount: 12,
		DailyPosts:   map[string]int{"2000-01-15": 1},
		PlanLimit:    100,
	}
	data, _ := json.Marshal(stale)
	ms.data["koiyu:usage"] = data

	repo := New(ms, "koiyu:", 100, zap.NewNop())
	rec := repo.Load(context.Background())

	if rec.PeriodKey != domain.PeriodKeyAt(time.Now()) {
		t.Errorf("expected current period key, got %q", rec.PeriodKey)
	}
	if rec.PostsCount != 0 || rec.ReadsCount != 0 || rec.RepliesCount != 0 {
		t.Errorf("expected counters zeroed on rollover, got %+v", rec)
	}
	if len(rec.DailyPosts) != 0 {
		t.Errorf("expected daily posts cleared on rollover, got %v", rec.DailyPosts)
	}
}

func TestLoad_CorruptRecordStartsFresh(t *testing.T) {
	ms := newMockStore()
	ms.data["koiyu:usage"] = []byte("{not json")

	repo := New(ms, "koiyu:", 100, zap.NewNop())
	rec := repo.Load(context.Background())

	if rec.PostsCount != 0 {
		t.Errorf("expected zeroed record for corrupt state, got %+v", rec)
	}
}

func TestLoad_CurrentPeriodSurvives(t *testing.T) {
	ms := newMockStore()
	repo := New(ms, "koiyu:", 100, zap.NewNop())

	rec := domain.NewUsageRecord(domain.PeriodKeyAt(time.Now()), 100)
	rec.PostsCount = 5
	rec.RepliesCount = 3
	rec.DailyPosts[domain.DayKeyAt(time.Now())] = 1
	if err := repo.Save(context.Background(), rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	got := repo.Load(context.Background())
	if got.PostsCount != 5 || got.RepliesCount != 3 {
		t.Errorf("expected counters to survive reload, got %+v", got)
	}
	if got.PrimaryToday(domain.DayKeyAt(time.Now())) != 1 {
		t.Errorf("expected daily posts to survive reload, got %v", got.DailyPosts)
	}
}

func TestLoad_PlanLimitFollowsConfig(t *testing.T) {
	ms := newMockStore()
	repo := New(ms, "koiyu:", 100, zap.NewNop())

	rec := domain.NewUsageRecord(domain.PeriodKeyAt(time.Now()), 100)
	if err := repo.Save(context.Background(), rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Operator raised the plan limit between restarts.
	repo = New(ms, "koiyu:", 500, zap.NewNop())
	got := repo.Load(context.Background())
	if got.PlanLimit != 500 {
		t.Errorf("expected configured plan limit 500, got %d", got.PlanLimit)
	}
}

func TestReset_ZeroesIndependentOfRollover(t *testing.T) {
	ms := newMockStore()
	repo := New(ms, "koiyu:", 100, zap.NewNop())

	rec := domain.NewUsageRecord(domain.PeriodKeyAt(time.Now()), 100)
	rec.PostsCount = 99
	if err := repo.Save(context.Background(), rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.Reset(context.Background())
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got.PostsCount != 0 {
		t.Errorf("expected zeroed counters after reset, got %+v", got)
	}

	reloaded := repo.Load(context.Background())
	if reloaded.PostsCount != 0 {
		t.Errorf("expected reset to persist, got %+v", reloaded)
	}
}
