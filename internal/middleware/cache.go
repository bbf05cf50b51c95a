package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// CacheControl marks a response as cacheable for the given number of
// seconds. Applied to slow-changing reference reads such as the hall list.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAgeSeconds))
		c.Next()
	}
}
