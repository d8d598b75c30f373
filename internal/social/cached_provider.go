package social

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/logger"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/metrics"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/ranking"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "feed:viewer:"

// Cache is the subset of the Redis client used for viewer contexts
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// ContextSource builds viewer contexts
type ContextSource interface {
	ViewerContext(ctx context.Context, viewerID string) (*ranking.ViewerContext, error)
}

// CachedProvider keeps recently built viewer contexts in Redis.
// Cache failures fall through to the underlying source.
type CachedProvider struct {
	source ContextSource
	cache  Cache
	ttl    time.Duration
}

func NewCachedProvider(source ContextSource, cache Cache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{source: source, cache: cache, ttl: ttl}
}

func (c *CachedProvider) ViewerContext(ctx context.Context, viewerID string) (*ranking.ViewerContext, error) {
	key := cacheKeyPrefix + viewerID

	if raw, err := c.cache.Get(ctx, key); err == nil && raw != "" {
		var vc ranking.ViewerContext
		if err := json.Unmarshal([]byte(raw), &vc); err == nil {
			metrics.Get().ViewerContextsTotal.WithLabelValues("cache").Inc()
			return &vc, nil
		}
		logger.Log.Debug("Discarding undecodable cached viewer context", logger.WithUserID(viewerID))
		if err := c.cache.Del(ctx, key); err != nil {
			logger.Log.Warn("Failed to evict cached viewer context", logger.WithUserID(viewerID), zap.Error(err))
		}
	}

	vc, err := c.source.ViewerContext(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	if c.ttl > 0 && !vc.Partial {
		if data, err := json.Marshal(vc); err == nil {
			if err := c.cache.SetEx(ctx, key, string(data), c.ttl); err != nil {
				logger.Log.Warn("Failed to cache viewer context",
					logger.WithUserID(viewerID),
					zap.Error(err),
				)
			}
		}
	}

	return vc, nil
}
