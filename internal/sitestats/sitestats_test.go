package sitestats

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-while/go-pugwiki/internal/cache"
	"github.com/go-while/go-pugwiki/internal/config"
	"github.com/go-while/go-pugwiki/internal/models"
)

type fakeStore struct {
	mux         sync.Mutex
	stats       models.SiteStats
	groups      map[string]int64
	active      int64
	loadCalls   int
	groupCalls  int
	countCalls  int
	lastSince   time.Time
	refreshedAt time.Time
	countErr    error
}

func (f *fakeStore) LoadSiteStats(ctx context.Context) (*models.SiteStats, error) {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.loadCalls++
	s := f.stats
	return &s, nil
}

func (f *fakeStore) NumberInGroup(ctx context.Context, group string) (int64, error) {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.groupCalls++
	return f.groups[group], nil
}

func (f *fakeStore) CountActiveUsers(ctx context.Context, since time.Time) (int64, error) {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.countCalls++
	f.lastSince = since
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.active, nil
}

func (f *fakeStore) SetActiveUsers(ctx context.Context, count int64) error {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.stats.ActiveUsers = count
	return nil
}

func (f *fakeStore) GetConfigTime(ctx context.Context, key string) (time.Time, error) {
	f.mux.Lock()
	defer f.mux.Unlock()
	return f.refreshedAt, nil
}

func (f *fakeStore) SetConfigTime(ctx context.Context, key string, t time.Time) error {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.refreshedAt = t
	return nil
}

func (f *fakeStore) calls() (load, group, count int) {
	f.mux.Lock()
	defer f.mux.Unlock()
	return f.loadCalls, f.groupCalls, f.countCalls
}

func newTestService(t *testing.T, store *fakeStore) (*Service, *cache.ObjectCache) {
	t.Helper()
	oc := cache.NewObjectCache(100, time.Hour)
	t.Cleanup(oc.Stop)
	cfg := config.NewDefaultConfig()
	cfg.Wiki.WikiID = "testwiki"
	cfg.Wiki.ActiveUserDays = 30
	cfg.Wiki.SnapshotTTL = time.Minute
	return NewService(store, oc, &cfg.Wiki), oc
}

func TestSnapshotIsCached(t *testing.T) {
	store := &fakeStore{stats: models.SiteStats{Edits: 10, Pages: 5}}
	svc, _ := newTestService(t, store)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s, err := svc.Snapshot(ctx)
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if s.Edits != 10 {
			t.Errorf("expected 10 edits, got %d", s.Edits)
		}
	}
	if load, _, _ := store.calls(); load != 1 {
		t.Errorf("expected 1 store read within the ttl, got %d", load)
	}

	now = now.Add(2 * time.Minute)
	if _, err := svc.Snapshot(ctx); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if load, _, _ := store.calls(); load != 2 {
		t.Errorf("expected a fresh read after the ttl, got %d reads", load)
	}
}

func TestNumberInGroupUsesObjectCache(t *testing.T) {
	store := &fakeStore{groups: map[string]int64{"sysop": 4}}
	svc, oc := newTestService(t, store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		n, err := svc.NumberInGroup(ctx, "sysop")
		if err != nil || n != 4 {
			t.Fatalf("NumberInGroup = %d, %v", n, err)
		}
	}
	if _, group, _ := store.calls(); group != 1 {
		t.Errorf("expected 1 store query, got %d", group)
	}
	if v, ok := oc.GetInt64("testwiki:sitestats:groupcounts:sysop"); !ok || v != 4 {
		t.Errorf("expected cached count under the group key, got %d %t", v, ok)
	}

	svc.InvalidateGroupCount("sysop")
	if _, err := svc.NumberInGroup(ctx, "sysop"); err != nil {
		t.Fatalf("NumberInGroup failed: %v", err)
	}
	if _, group, _ := store.calls(); group != 2 {
		t.Errorf("expected a store query after invalidation, got %d", group)
	}
}

func TestRefreshActiveUsersIfStale(t *testing.T) {
	store := &fakeStore{active: 12}
	svc, oc := newTestService(t, store)
	ctx := context.Background()
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	if err := svc.RefreshActiveUsersIfStale(ctx); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if err := svc.RefreshActiveUsersIfStale(ctx); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if _, _, count := store.calls(); count != 1 {
		t.Errorf("expected a single recount while the marker is set, got %d", count)
	}
	if v, ok := oc.GetString("testwiki:sitestats:activeusers-updated"); !ok || v != "1" {
		t.Errorf("expected marker '1', got %q %t", v, ok)
	}
	if want := now.Add(-30 * 24 * time.Hour); !store.lastSince.Equal(want) {
		t.Errorf("expected window start %s, got %s", want, store.lastSince)
	}
	if !store.refreshedAt.Equal(now) {
		t.Errorf("expected refresh time to be recorded")
	}

	s, _ := svc.Snapshot(ctx)
	if s.ActiveUsers != 12 {
		t.Errorf("expected refreshed count in snapshot, got %d", s.ActiveUsers)
	}

	oc.Delete("testwiki:sitestats:activeusers-updated")
	store.active = 13
	if err := svc.RefreshActiveUsersIfStale(ctx); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if _, _, count := store.calls(); count != 2 {
		t.Errorf("expected a recount once the marker is gone, got %d", count)
	}
}

func TestRefreshFailureLeavesMarkerUnset(t *testing.T) {
	store := &fakeStore{countErr: errors.New("db down")}
	svc, oc := newTestService(t, store)

	if err := svc.RefreshActiveUsersIfStale(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := oc.Get("testwiki:sitestats:activeusers-updated"); ok {
		t.Errorf("marker must not be set after a failed recount")
	}
}

func TestSnapshotInvalidatedByRefresh(t *testing.T) {
	store := &fakeStore{stats: models.SiteStats{ActiveUsers: 1}, active: 5}
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	if s, _ := svc.Snapshot(ctx); s.ActiveUsers != 1 {
		t.Fatalf("expected 1 active user before refresh")
	}
	if _, err := svc.RefreshActiveUsers(ctx); err != nil {
		t.Fatalf("RefreshActiveUsers failed: %v", err)
	}
	if s, _ := svc.Snapshot(ctx); s.ActiveUsers != 5 {
		t.Errorf("expected snapshot to pick up the recount, got %d", s.ActiveUsers)
	}
}

func TestUpdaterRunsUntilCancelled(t *testing.T) {
	store := &fakeStore{active: 3}
	svc, _ := newTestService(t, store)
	ctx, cancel := context.WithCancel(context.Background())

	u := NewUpdater(svc, 10*time.Millisecond)
	go u.Run(ctx)

	deadline := time.After(2 * time.Second)
	for {
		if _, _, count := store.calls(); count >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("updater did not tick")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-u.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("updater did not stop after cancel")
	}
}
