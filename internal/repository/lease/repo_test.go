package lease

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Danyalalam/X-automation/internal/domain"
	"github.com/Danyalalam/X-automation/internal/store"
)

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

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestAcquire_NoExistingLease(t *testing.T) {
	ms := newMockStore()
	repo := New(ms, "koiyu:", 15*time.Minute, zap.NewNop())

	if err := repo.Acquire(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var rec Record
	if err := json.Unmarshal(ms.data["koiyu:instance_lease"], &rec); err != nil {
		t.Fatalf("lease not written: %v", err)
	}
	if rec.Owner != repo.Owner() {
		t.Errorf("expected owner %q, got %q", repo.Owner(), rec.Owner)
	}
}

func TestAcquire_FreshForeignLeaseRefused(t *testing.T) {
	ms := newMockStore()
	other := Record{Owner: "someone-else", CreatedAt: time.Now().UTC(), RefreshedAt: time.Now().UTC()}
	data, _ := json.Marshal(other)
	ms.data["koiyu:instance_lease"] = data

	repo := New(ms, "koiyu:", 15*time.Minute, zap.NewNop())
	err := repo.Acquire(context.Background())

	if !errors.Is(err, domain.ErrInstanceRunning) {
		t.Fatalf("expected ErrInstanceRunning, got %v", err)
	}
}

func TestAcquire_StaleForeignLeaseClaimed(t *testing.T) {
	ms := newMockStore()
	old := time.Now().UTC().Add(-time.Hour)
	other := Record{Owner: "someone-else", CreatedAt: old, RefreshedAt: old}
	data, _ := json.Marshal(other)
	ms.data["koiyu:instance_lease"] = data

	repo := New(ms, "koiyu:", 15*time.Minute, zap.NewNop())
	if err := repo.Acquire(context.Background()); err != nil {
		t.Fatalf("expected stale lease to be claimed, got %v", err)
	}

	var rec Record
	_ = json.Unmarshal(ms.data["koiyu:instance_lease"], &rec)
	if rec.Owner != repo.Owner() {
		t.Errorf("expected lease taken over, owner is %q", rec.Owner)
	}
}

func TestRefresh_AdvancesTimestamp(t *testing.T) {
	ms := newMockStore()
	repo := New(ms, "koiyu:", 15*time.Minute, zap.NewNop())
	if err := repo.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	var before Record
	_ = json.Unmarshal(ms.data["koiyu:instance_lease"], &before)

	time.Sleep(5 * time.Millisecond)
	if err := repo.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	var after Record
	_ = json.Unmarshal(ms.data["koiyu:instance_lease"], &after)
	if !after.RefreshedAt.After(before.RefreshedAt) {
		t.Error("expected RefreshedAt to advance")
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Error("expected CreatedAt to be preserved across refresh")
	}
}

func TestRefresh_ForeignTakeoverSurfaced(t *testing.T) {
	ms := newMockStore()
	repo := New(ms, "koiyu:", 15*time.Minute, zap.NewNop())
	if err := repo.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	other := Record{Owner: "usurper", CreatedAt: time.Now().UTC(), RefreshedAt: time.Now().UTC()}
	data, _ := json.Marshal(other)
	ms.data["koiyu:instance_lease"] = data

	if err := repo.Refresh(context.Background()); !errors.Is(err, domain.ErrInstanceRunning) {
		t.Fatalf("expected ErrInstanceRunning, got %v", err)
	}
}

func TestRelease_DeletesLease(t *testing.T) {
	ms := newMockStore()
	repo := New(ms, "koiyu:", 15*time.Minute, zap.NewNop())
	if err := repo.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	repo.Release(context.Background())
	if _, ok := ms.data["koiyu:instance_lease"]; ok {
		t.Error("expected lease record to be deleted")
	}
}
