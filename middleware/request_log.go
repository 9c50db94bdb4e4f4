package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tieubaoca/studytool-be/logger"
	"github.com/tieubaoca/studytool-be/types"
)

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if reqID := c.GetString(requestIDKey); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if p, ok := types.PrincipalFromContext(c.Request.Context()); ok {
			fields = append(fields, "user_id", p.UserID, "verified", p.Verified)
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
