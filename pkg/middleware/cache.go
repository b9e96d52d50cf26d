package middleware

import (
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-gonic/gin"
)

// CachePerUser caches responses keyed by the authenticated caller plus the
// request URI. A URI-only key would hand one caller's cached response to the
// next caller hitting the same URI, so requests without a resolved identity
// are never cached at all.
func CachePerUser(store persist.CacheStore, ttl time.Duration) gin.HandlerFunc {
	return cache.Cache(store, ttl, cache.WithCacheStrategyByRequest(perUserStrategy))
}

func perUserStrategy(c *gin.Context) (bool, cache.Strategy) {
	userID := c.GetString("userID")
	if userID == "" {
		return false, cache.Strategy{}
	}

	return true, cache.Strategy{CacheKey: userID + ":" + c.Request.RequestURI}
}
