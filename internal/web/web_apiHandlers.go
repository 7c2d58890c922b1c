package web

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// adminGroup is the group reported as "admins" by the stats API
const adminGroup = "sysop"

// StatsResponse is the JSON body of /api/v1/stats
type StatsResponse struct {
	Pages       int64     `json:"pages"`
	Articles    int64     `json:"articles"`
	Edits       int64     `json:"edits"`
	Images      int64     `json:"images"`
	Users       int64     `json:"users"`
	ActiveUsers int64     `json:"activeusers"`
	Admins      int64     `json:"admins"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *WebServer) getStats(c *gin.Context) {
	ctx := c.Request.Context()
	snap, err := s.Stats.Snapshot(ctx)
	if err != nil {
		log.Printf("[WEB]: getStats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get statistics"})
		return
	}
	admins, err := s.Stats.NumberInGroup(ctx, adminGroup)
	if err != nil {
		log.Printf("[WEB]: getStats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get statistics"})
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		Pages:       snap.Pages,
		Articles:    snap.Articles,
		Edits:       snap.Edits,
		Images:      snap.Images,
		Users:       snap.Users,
		ActiveUsers: snap.ActiveUsers,
		Admins:      admins,
		UpdatedAt:   snap.UpdatedAt,
	})
}

// adminRefreshStats forces an active user recount
func (s *WebServer) adminRefreshStats(c *gin.Context) {
	start := time.Now()
	count, err := s.Stats.RefreshActiveUsers(c.Request.Context())
	if err != nil {
		log.Printf("[WEB]: adminRefreshStats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh active users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"activeusers": count,
		"days":        s.Stats.ActiveUserDays(),
		"took_ms":     time.Since(start).Milliseconds(),
	})
}
