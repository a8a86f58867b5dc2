package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Recovery converts a handler panic into a plain 500 with the request's
// correlation ID. The stack goes to the log only; the response body
// never carries panic details.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			rid := c.GetString(ContextRequestID)
			log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Str("request_id", rid).
				Msg("recovered from panic")

			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
				Code:    http.StatusInternalServerError,
				Message: "internal server error",
				TraceID: rid,
			})
		}()

		c.Next()
	}
}
