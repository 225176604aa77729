package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
)

// WithResponseMeta gives handlers a metadata map for the response envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, map[string]interface{}{"started_at": time.Now().UTC()})
		c.Next()
	}
}

// SetCacheHit records whether the response was served from the catalogue cache.
func SetCacheHit(c *gin.Context, hit bool) {
	meta(c)[cacheHitKey] = hit
}

// ResponseMeta returns the metadata to render, with the elapsed processing time filled in.
func ResponseMeta(c *gin.Context) map[string]interface{} {
	m := meta(c)
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if k == "started_at" {
			if started, ok := v.(time.Time); ok {
				out["processing_time_ms"] = time.Since(started).Milliseconds()
			}
			continue
		}
		out[k] = v
	}
	return out
}

func meta(c *gin.Context) map[string]interface{} {
	if value, exists := c.Get(responseMetaKey); exists {
		if typed, ok := value.(map[string]interface{}); ok {
			return typed
		}
	}
	fresh := map[string]interface{}{}
	c.Set(responseMetaKey, fresh)
	return fresh
}
