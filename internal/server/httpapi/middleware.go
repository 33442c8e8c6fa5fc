package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/geodash/internal/api"
	"github.com/dmitrijs2005/geodash/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const roleKey = "role"

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(start),
		)
	}
}

// requireKey accepts the API key from "Authorization: Bearer <key>" or the
// "apikey" header. It is a no-op when no secret is configured.
func (s *HTTPServer) requireKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(s.jwtSecret) == 0 {
			c.Next()
			return
		}

		key := c.GetHeader("apikey")
		if h := c.GetHeader("Authorization"); key == "" && strings.HasPrefix(h, "Bearer ") {
			key = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "missing token", Reason: api.ReasonUnauthorized})
			return
		}

		role, err := auth.ParseKey(key, s.jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: err.Error(), Reason: api.ReasonUnauthorized})
			return
		}

		c.Set(roleKey, role)
		c.Next()
	}
}
