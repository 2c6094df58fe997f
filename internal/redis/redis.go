package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"censuspop/internal/config"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// redisClient holds the Redis client connection
var redisClient *redis.Client

// Init connects to Redis and sets the global client
func Init(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), config.RedisOpTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to Redis: %w", err)
	}

	log.Println("Successfully connected to Redis")
	redisClient = client

	return client, nil
}

// GetClient returns the global Redis client connection
func GetClient() *redis.Client {
	return redisClient
}

// Close closes the Redis client connection
func Close() error {
	if redisClient != nil {
		log.Println("Closing Redis connection...")
		return redisClient.Close()
	}
	return nil
}

// Cache stores rendered payloads under a key prefix
type Cache struct {
	client *redis.Client
	prefix string
}

// NewCache wraps a client; every key is stored as prefix + key
func NewCache(client *redis.Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// Get returns the cached payload and whether it was present
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, config.RedisOpTimeout)
	defer cancel()

	b, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set stores a payload with an expiration
func (c *Cache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, config.RedisOpTimeout)
	defer cancel()

	return c.client.Set(ctx, c.prefix+key, value, expiration).Err()
}
