package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "fakenews-detector/internal/transport/http/response"
)

// MaxBodyBytes bounds request bodies; image uploads dominate the sizing.
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
		if c.Err() != nil && !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, resp.Error(http.StatusRequestEntityTooLarge, "request body too large"))
		}
	}
}
