package worker

import (
	"context"
	"time"

	"censuspop/internal/config"
	"censuspop/internal/service/population"

	log "github.com/sirupsen/logrus"
)

// StartCacheWarmer renders the full census-zones payload of every city into
// the cache right away and then on every CacheWarmInterval tick.
func StartCacheWarmer(ctx context.Context, svc *population.Service) {
	ticker := time.NewTicker(config.CacheWarmInterval)
	go func() {
		defer ticker.Stop()
		WarmCache(ctx, svc)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				WarmCache(ctx, svc)
			}
		}
	}()

	log.Println("Cache warmer started with interval:", config.CacheWarmInterval)
}

// WarmCache refreshes every city once and returns how many succeeded
func WarmCache(ctx context.Context, svc *population.Service) int {
	start := time.Now()
	warmed := 0
	for _, city := range svc.Cities() {
		if ctx.Err() != nil {
			break
		}
		if err := svc.RefreshCensusZones(ctx, city.Name); err != nil {
			log.Errorf("Error warming census zones for %s: %v", city.Name, err)
			continue
		}
		warmed++
	}
	log.Debugf("Warmed %d census-zones payloads in %v", warmed, time.Since(start))
	return warmed
}
