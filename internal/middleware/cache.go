package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type CacheConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:             30 * time.Second,
		CleanupInterval: 5 * time.Minute,
	}
}

// ResponseCache is a short-TTL body cache for hot public GET routes.
type ResponseCache struct {
	store *cache.Cache
	ttl   time.Duration
}

func NewResponseCache(config CacheConfig) *ResponseCache {
	return &ResponseCache{
		store: cache.New(config.TTL, config.CleanupInterval),
		ttl:   config.TTL,
	}
}

type cachedResponse struct {
	status      int
	contentType string
	body        []byte
}

type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Cache serves successful GET responses from memory for the TTL.
func (rc *ResponseCache) Cache() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		if hit, ok := rc.store.Get(key); ok {
			cached := hit.(cachedResponse)
			c.Header("X-Cache", "HIT")
			c.Data(cached.status, cached.contentType, cached.body)
			c.Abort()
			return
		}

		writer := &captureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer
		c.Next()

		if writer.Status() == http.StatusOK {
			rc.store.Set(key, cachedResponse{
				status:      writer.Status(),
				contentType: writer.Header().Get("Content-Type"),
				body:        writer.body.Bytes(),
			}, rc.ttl)
		}
	}
}
