package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID is the Gin context key holding the request ID.
const ContextKeyRequestID = "request_id"

// RequestIDMiddleware tags every request with an ID. An inbound
// X-Request-ID header is honored so callers can correlate across
// services; otherwise a fresh UUID is minted. The ID is echoed back
// on the response and stamped into the metadata envelope.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
