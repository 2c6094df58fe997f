package config

import "time"

const (
	// DefaultCacheTTL is how long a rendered census-zones payload stays in Redis
	DefaultCacheTTL = 6 * time.Hour

	// CacheWarmInterval defines how often the cache warmer re-renders city payloads
	CacheWarmInterval = 5 * time.Hour

	// MemoryReportInterval defines how often memory statistics are logged
	MemoryReportInterval = 30 * time.Second

	// RedisOpTimeout bounds every single Redis round trip
	RedisOpTimeout = 5 * time.Second
)
