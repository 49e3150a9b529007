package ui

import (
	"net/http"
	"strconv"
	"strings"

	"equipdata/app"
	"equipdata/domain/core"
	"equipdata/internal/metrics"
	"equipdata/internal/token"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// authRequired rejects requests without a valid Bearer access token and
// stores the caller identity in the request context.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided."})
			return
		}

		claims, err := s.tokens.Verify(strings.TrimPrefix(header, prefix), token.TypeAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token is invalid or expired."})
			return
		}

		subject, err := claims.GetSubject()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token is invalid or expired."})
			return
		}
		userID, err := core.ParseUserID(subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token is invalid or expired."})
			return
		}

		c.Set(identityKey, app.Identity{ID: userID, Username: claims.Username})
		c.Next()
	}
}

// identityFrom returns the authenticated caller set by authRequired.
func identityFrom(c *gin.Context) app.Identity {
	identity, _ := c.Get(identityKey)
	caller, _ := identity.(app.Identity)
	return caller
}

// requestMetrics counts every handled request by method, route and status.
func (s *Server) requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
	}
}
