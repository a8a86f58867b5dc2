package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderXRequestID = "X-Request-ID"
	ContextRequestID = "request_id"
)

// RequestID tags every request with a correlation ID. An inbound
// X-Request-ID from a gateway is kept so traces line up across hops;
// otherwise a fresh UUID is minted. The ID lands in the gin context for
// the request logger and error envelope, and in the response header for
// the caller.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderXRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(ContextRequestID, rid)
		c.Header(HeaderXRequestID, rid)

		c.Next()
	}
}
