package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequestIDEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextRequestID))
	})
	return r
}

func TestRequestIDMintsWhenAbsent(t *testing.T) {
	r := newRequestIDEngine()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	rid := w.Header().Get(HeaderXRequestID)
	_, err := uuid.Parse(rid)
	require.NoError(t, err)
	assert.Equal(t, rid, w.Body.String())
}

func TestRequestIDKeepsInboundHeader(t *testing.T) {
	r := newRequestIDEngine()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderXRequestID, "gateway-trace-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, "gateway-trace-1", w.Header().Get(HeaderXRequestID))
	assert.Equal(t, "gateway-trace-1", w.Body.String())
}
