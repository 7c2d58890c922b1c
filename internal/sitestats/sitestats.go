// Package sitestats serves the precomputed site counters and keeps the
// active user count fresh.
package sitestats

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-while/go-pugwiki/internal/cache"
	"github.com/go-while/go-pugwiki/internal/config"
	"github.com/go-while/go-pugwiki/internal/models"
)

// ActiveUsersRefreshedKey is the config table key holding the time of the last recount
const ActiveUsersRefreshedKey = "sitestats_activeusers_refreshed"

// Store is the persistent side of the site statistics
type Store interface {
	LoadSiteStats(ctx context.Context) (*models.SiteStats, error)
	NumberInGroup(ctx context.Context, group string) (int64, error)
	CountActiveUsers(ctx context.Context, since time.Time) (int64, error)
	SetActiveUsers(ctx context.Context, count int64) error
	GetConfigTime(ctx context.Context, key string) (time.Time, error)
	SetConfigTime(ctx context.Context, key string, t time.Time) error
}

// Cache is the object cache used for markers and group counts
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, ttl time.Duration)
	Delete(key string)
}

// Service reads counters through a short-lived in-process snapshot
type Service struct {
	store          Store
	cache          Cache
	wikiID         string
	activeUserDays int
	snapshotTTL    time.Duration
	now            func() time.Time

	mux        sync.Mutex
	snapshot   *models.SiteStats
	snapshotAt time.Time

	refreshMux sync.Mutex
}

// NewService creates a site statistics service for one wiki
func NewService(store Store, objectCache Cache, wiki *config.WikiConfig) *Service {
	return &Service{
		store:          store,
		cache:          objectCache,
		wikiID:         wiki.WikiID,
		activeUserDays: wiki.ActiveUserDays,
		snapshotTTL:    wiki.SnapshotTTL,
		now:            time.Now,
	}
}

// Snapshot returns the current counters, served from memory for SnapshotTTL
func (s *Service) Snapshot(ctx context.Context) (models.SiteStats, error) {
	s.mux.Lock()
	if s.snapshot != nil && s.now().Sub(s.snapshotAt) < s.snapshotTTL {
		snap := *s.snapshot
		s.mux.Unlock()
		return snap, nil
	}
	s.mux.Unlock()

	stats, err := s.store.LoadSiteStats(ctx)
	if err != nil {
		return models.SiteStats{}, err
	}

	s.mux.Lock()
	s.snapshot = stats
	s.snapshotAt = s.now()
	s.mux.Unlock()
	return *stats, nil
}

// InvalidateSnapshot forces the next Snapshot to read the store
func (s *Service) InvalidateSnapshot() {
	s.mux.Lock()
	s.snapshot = nil
	s.mux.Unlock()
}

// NumberInGroup returns the member count of group, cached for an hour
func (s *Service) NumberInGroup(ctx context.Context, group string) (int64, error) {
	key := cache.MakeKey(s.wikiID, "sitestats", "groupcounts", group)
	if v, ok := s.cache.Get(key); ok {
		if n, ok := v.(int64); ok {
			return n, nil
		}
	}

	n, err := s.store.NumberInGroup(ctx, group)
	if err != nil {
		return 0, err
	}
	s.cache.Set(key, n, config.GroupCountsTTL)
	return n, nil
}

// InvalidateGroupCount drops the cached member count of group
func (s *Service) InvalidateGroupCount(group string) {
	s.cache.Delete(cache.MakeKey(s.wikiID, "sitestats", "groupcounts", group))
}

// RefreshActiveUsersIfStale recounts active users unless a recount happened
// within the last day, as recorded by a marker in the object cache.
func (s *Service) RefreshActiveUsersIfStale(ctx context.Context) error {
	key := cache.MakeKey(s.wikiID, "sitestats", "activeusers-updated")
	if _, ok := s.cache.Get(key); ok {
		return nil
	}
	if _, err := s.RefreshActiveUsers(ctx); err != nil {
		return err
	}
	s.cache.Set(key, "1", config.ActiveUsersUpdatedTTL)
	return nil
}

// RefreshActiveUsers recounts and stores the number of active users.
// Concurrent calls are serialized.
func (s *Service) RefreshActiveUsers(ctx context.Context) (int64, error) {
	s.refreshMux.Lock()
	defer s.refreshMux.Unlock()

	start := s.now()
	since := start.Add(-time.Duration(s.activeUserDays) * 24 * time.Hour)
	count, err := s.store.CountActiveUsers(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("failed to recount active users: %w", err)
	}
	if err := s.store.SetActiveUsers(ctx, count); err != nil {
		return 0, err
	}
	if err := s.store.SetConfigTime(ctx, ActiveUsersRefreshedKey, start); err != nil {
		log.Printf("[STATS]: failed to record refresh time: %v", err)
	}
	s.InvalidateSnapshot()

	log.Printf("[STATS]: Active users recounted: %d in the last %d days (took %v)", count, s.activeUserDays, s.now().Sub(start))
	return count, nil
}

// LastActiveUsersRefresh returns when active users were last recounted, zero if never
func (s *Service) LastActiveUsersRefresh(ctx context.Context) (time.Time, error) {
	return s.store.GetConfigTime(ctx, ActiveUsersRefreshedKey)
}

// ActiveUserDays is the activity window used for the count
func (s *Service) ActiveUserDays() int {
	return s.activeUserDays
}
