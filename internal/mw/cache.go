package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache keeps successful GET responses in memory, keyed by request URI.
type ResponseCache struct {
	store    *cache.Cache
	duration time.Duration
}

// NewResponseCache creates a cache whose entries expire after duration.
func NewResponseCache(duration time.Duration) *ResponseCache {
	return &ResponseCache{
		store:    cache.New(duration, 2*duration),
		duration: duration,
	}
}

// Flush drops every cached response. Handlers that change items call it so
// cached item lists are not served stale.
func (rc *ResponseCache) Flush() {
	if rc == nil {
		return
	}
	rc.store.Flush()
}

// Middleware serves cached GET responses and records new successful ones.
// A "Cache-Control: no-cache" request bypasses the lookup but still refreshes
// the entry.
func (rc *ResponseCache) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if c.GetHeader("Cache-Control") != "no-cache" {
			if resp, found := rc.store.Get(key); found {
				cached := resp.(cachedResponse)
				for k, v := range cached.headers {
					c.Writer.Header()[k] = v
				}
				c.Writer.Header().Set("X-Cache", "HIT")
				c.Writer.WriteHeader(cached.status)
				c.Writer.Write(cached.body)
				c.Abort()
				return
			}
		}

		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// Only cache successful responses
		if blw.Status() >= 200 && blw.Status() < 300 {
			rc.store.Set(key, cachedResponse{
				status:  blw.Status(),
				headers: blw.Header().Clone(),
				body:    bytes.Clone(blw.body.Bytes()),
			}, rc.duration)
		}
	}
}
