package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tieubaoca/studytool-be/logger"
	"github.com/tieubaoca/studytool-be/types"
	"github.com/tieubaoca/studytool-be/utils"
)

const UserIDHeader = "X-User-ID"

type IdentityConfig struct {
	JWTSecret string
	// TrustUserHeader accepts the unsigned X-User-ID header as identity.
	TrustUserHeader bool
}

// Identity resolves the caller and stores a types.Principal in the request
// context. A bearer token wins over the header. A bad token is rejected here;
// a missing identity is left to RequirePrincipal or the handler.
func Identity(cfg IdentityConfig, log *logger.Logger) gin.HandlerFunc {
	log = log.With("middleware", "Identity")
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			claims, err := utils.ParseUserToken(cfg.JWTSecret, token)
			if err != nil {
				log.Debug("Rejected bearer token", "error", err)
				c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{Error: "invalid or expired token"})
				return
			}
			setPrincipal(c, types.Principal{UserID: claims.Subject, Verified: true})
			c.Next()
			return
		}

		if cfg.TrustUserHeader {
			if userID := strings.TrimSpace(c.GetHeader(UserIDHeader)); userID != "" {
				setPrincipal(c, types.Principal{UserID: userID})
			}
		}
		c.Next()
	}
}

// RequirePrincipal aborts with 401 when Identity found nobody.
func RequirePrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := types.PrincipalFromContext(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{Error: "authentication required"})
			return
		}
		c.Next()
	}
}

func setPrincipal(c *gin.Context, p types.Principal) {
	c.Request = c.Request.WithContext(types.WithPrincipal(c.Request.Context(), p))
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
