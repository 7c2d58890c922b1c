package sitestats

import (
	"context"
	"log"
	"time"
)

// Updater recounts active users on a fixed interval. Wikis running in miser
// mode skip the recount on page view and rely on this job instead.
type Updater struct {
	svc      *Service
	interval time.Duration
	done     chan struct{}
}

// NewUpdater creates an updater; call Run to start it
func NewUpdater(svc *Service, interval time.Duration) *Updater {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Updater{svc: svc, interval: interval, done: make(chan struct{})}
}

// Run recounts once immediately and then on every tick until ctx is cancelled
func (u *Updater) Run(ctx context.Context) {
	defer close(u.done)
	log.Printf("[STATS]: Started active users updater, interval %s", u.interval)

	u.runOnce(ctx)

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			u.runOnce(ctx)
		case <-ctx.Done():
			log.Printf("[STATS]: Active users updater stopped")
			return
		}
	}
}

// Done is closed when Run has returned
func (u *Updater) Done() <-chan struct{} {
	return u.done
}

func (u *Updater) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := u.svc.RefreshActiveUsers(ctx); err != nil {
		log.Printf("[STATS]: Active users update failed: %v", err)
	}
}
