package handler

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tieubaoca/studytool-be/middleware"
)

type CorsHandler struct {
	allowedOrigins []string
}

func NewCorsHandler(allowedOrigins []string) *CorsHandler {
	return &CorsHandler{allowedOrigins: allowedOrigins}
}

func (h *CorsHandler) CorsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:  h.allowedOrigins,
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", middleware.UserIDHeader, middleware.HeaderRequestID},
		ExposeHeaders: []string{HeaderRequestedCount, HeaderReturnedCount, HeaderGenerationWarning, HeaderSkippedFiles, middleware.HeaderRequestID, middleware.HeaderTraceID},
	})
}
