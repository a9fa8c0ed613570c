package providers

import (
	"github.com/samber/do/v2"

	"github.com/inkwell/inkwell-server/internal/config"
	"github.com/inkwell/inkwell-server/internal/logger"
	"github.com/inkwell/inkwell-server/internal/recommend"
)

// RecommendCacheHandle wraps the Badger-backed cache with shutdown capability.
type RecommendCacheHandle struct {
	*recommend.Cache
}

// Shutdown implements do.Shutdownable.
func (h *RecommendCacheHandle) Shutdown() error {
	return h.Close()
}

// ProvideRecommendCache opens the recommendation cache under the data path.
func ProvideRecommendCache(i do.Injector) (*RecommendCacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	cache, err := recommend.OpenCache(recommend.CacheOptions{
		Path:   cfg.Data.CachePath(),
		TTL:    cfg.Recommend.CacheTTL,
		Logger: log.Component("recommend"),
	})
	if err != nil {
		return nil, err
	}

	log.Info("Recommendation cache opened", "path", cfg.Data.CachePath(), "ttl", cfg.Recommend.CacheTTL)
	return &RecommendCacheHandle{Cache: cache}, nil
}

// ProvideRecommendEngine provides the recommendation engine.
func ProvideRecommendEngine(i do.Injector) (*recommend.Engine, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cacheHandle := do.MustInvoke[*RecommendCacheHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return recommend.NewEngine(storeHandle.Store, cacheHandle.Cache, log.Logger), nil
}
