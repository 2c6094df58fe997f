package worker

import (
	"context"
	"runtime"
	"time"

	"censuspop/internal/config"

	log "github.com/sirupsen/logrus"
)

// StartMemoryReporter logs heap statistics every MemoryReportInterval
func StartMemoryReporter(ctx context.Context) {
	ticker := time.NewTicker(config.MemoryReportInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				var m runtime.MemStats
				runtime.ReadMemStats(&m)
				log.Printf("Alloc = %v MiB, TotalAlloc = %v MiB, Sys = %v MiB, NumGC = %v",
					m.Alloc/1024/1024, m.TotalAlloc/1024/1024, m.Sys/1024/1024, m.NumGC)
			}
		}
	}()
}
