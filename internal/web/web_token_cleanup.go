package web

import (
	"context"
	"log"
	"time"
)

// TokenCleanupInterval is how often expired API tokens are purged
const TokenCleanupInterval = 15 * time.Minute

// StartTokenCleanup starts a background goroutine removing expired API tokens until ctx is cancelled
func (s *WebServer) StartTokenCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(TokenCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.DB.CleanupExpiredTokens(ctx)
				if err != nil {
					log.Printf("[WEB]: Error cleaning up expired API tokens: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("[WEB]: Removed %d expired API tokens", n)
				}
			}
		}
	}()

	log.Println("[WEB]: Started API token cleanup background task")
}
