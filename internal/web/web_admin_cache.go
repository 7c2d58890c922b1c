package web

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// adminClearCache clears the object cache and the statistics snapshot, then reloads message overrides
func (s *WebServer) adminClearCache(c *gin.Context) {
	var cleared []string

	entries := 0
	if s.Cache != nil {
		entries = s.Cache.Clear()
		cleared = append(cleared, "object cache")
	}

	s.Stats.InvalidateSnapshot()
	cleared = append(cleared, "statistics snapshot")

	if err := s.Messages.Reload(c.Request.Context()); err != nil {
		log.Printf("[WEB]: adminClearCache: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload message overrides"})
		return
	}
	cleared = append(cleared, "message overrides")

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         "Cleared: " + strings.Join(cleared, ", "),
		"entries_cleared": entries,
	})
}
