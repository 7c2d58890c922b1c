package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-pugwiki/internal/database"
)

const (
	APIAuthHeader = "X-API-Token"
	bearerPrefix  = "Bearer "
)

// apiTokenFromRequest reads the token from "Authorization: Bearer" or X-API-Token
func apiTokenFromRequest(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(auth, bearerPrefix))
	}
	return strings.TrimSpace(c.GetHeader(APIAuthHeader))
}

// APIAuthRequired middleware for API token authentication
func (s *WebServer) APIAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := apiTokenFromRequest(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "header 'Authorization: Bearer {token}' or '" + APIAuthHeader + ": {token}' required"})
			c.Abort()
			return
		}

		apiToken, err := s.DB.ValidateAPIToken(c.Request.Context(), token)
		switch {
		case errors.Is(err, database.ErrTokenNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or disabled token"})
			c.Abort()
			return
		case errors.Is(err, database.ErrTokenExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			c.Abort()
			return
		case err != nil:
			log.Printf("[WEB]: Failed to validate API token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Token validation failed"})
			c.Abort()
			return
		}

		// Update usage statistics (non-blocking)
		go func(id int) {
			if err := s.DB.UpdateTokenUsage(context.Background(), id); err != nil {
				log.Printf("[WEB]: Failed to update token usage: %v", err)
			}
		}(apiToken.ID)

		// Store token info in context for use by handlers
		c.Set("api_token", apiToken)
		c.Next()
	}
}
