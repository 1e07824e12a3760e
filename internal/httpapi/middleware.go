// SPDX-License-Identifier: MPL-2.0

package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/omniauto/omniauto/internal/action"
)

// bearerAuth rejects requests without the configured token. It is a no-op
// when no token is configured.
func (s *Server) bearerAuth() gin.HandlerFunc {
	want := []byte(s.cfg.Token)
	return func(c *gin.Context) {
		if len(want) == 0 {
			c.Next()
			return
		}
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), want) != 1 {
			c.Header("WWW-Authenticate", `Bearer realm="omniauto"`)
			s.respondError(c, &action.PermissionDeniedError{Action: c.Request.URL.Path, Reason: "missing or invalid bearer token"}, http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"remote", c.ClientIP(),
		)
	}
}
