package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fakenews-detector/internal/core/auth"
	resp "fakenews-detector/internal/transport/http/response"
)

// AuthJWT verifies the bearer token and exposes the subject as "userId".
// Missing, malformed, and expired tokens are indistinguishable to clients.
func AuthJWT(j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, resp.Error(resp.CodeUnauthorized, "invalid or expired token"))
			return
		}
		c.Set("userId", claims.Subject)
		c.Next()
	}
}
