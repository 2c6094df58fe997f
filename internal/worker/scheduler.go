package worker

import (
	"context"

	"censuspop/internal/service/population"

	log "github.com/sirupsen/logrus"
)

// StartAllWorkers initializes and starts all background workers. The cache
// warmer only runs when a cache is configured.
func StartAllWorkers(ctx context.Context, svc *population.Service, cacheEnabled bool) {
	log.Println("Starting all workers...")

	if cacheEnabled {
		StartCacheWarmer(ctx, svc)
	}
	StartMemoryReporter(ctx)

	log.Println("All workers started")
}
