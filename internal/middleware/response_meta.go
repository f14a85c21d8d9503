package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/reprint-api/pkg/middleware/requestid"
)

const (
	responseMetaKey  = "reprint_response_meta"
	requestStartKey  = "reprint_request_start"
	metaRequestID    = "request_id"
	metaStatsCached  = "stats_cached"
	metaElapsedMilli = "elapsed_ms"
)

// WithResponseMeta starts the envelope meta block for a request. It must run
// after the request id middleware.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		meta := ensureMeta(c)
		if id := requestid.Value(c); id != "" {
			meta[metaRequestID] = id
		}
		c.Next()
	}
}

// MarkStatsCached records whether dashboard counters came from the cache.
func MarkStatsCached(c *gin.Context, cached bool) {
	ensureMeta(c)[metaStatsCached] = cached
}

// ResponseMeta returns the meta block to render, stamped with the time spent
// so far. It returns nil when nothing was recorded.
func ResponseMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	raw, exists := c.Get(responseMetaKey)
	if !exists {
		return nil
	}
	meta, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	if start, ok := c.Get(requestStartKey); ok {
		if t, ok := start.(time.Time); ok {
			meta[metaElapsedMilli] = time.Since(t).Milliseconds()
		}
	}
	return meta
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if raw, exists := c.Get(responseMetaKey); exists {
		if meta, ok := raw.(map[string]interface{}); ok {
			return meta
		}
	}
	meta := map[string]interface{}{}
	c.Set(responseMetaKey, meta)
	return meta
}
