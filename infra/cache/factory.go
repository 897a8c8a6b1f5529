package cache

import (
	"log/slog"

	"github.com/shopforge/taxbridge/pkg/cache"
	"github.com/shopforge/taxbridge/pkg/config"
)

// New builds the cache backend from config: Redis when a URL is
// configured, otherwise an in-process memory cache.
func New(cfg *config.Redis, logger *slog.Logger) (cache.Cache, error) {
	if cfg == nil || cfg.URL == "" {
		logger.Info("No Redis URL configured, using in-memory cache")
		return NewMemoryCache(), nil
	}
	logger.Info("Using Redis cache", "prefix", cfg.KeyPrefix)
	return NewRedisCache(cfg.URL, cfg.KeyPrefix, logger)
}
