package redis

import (
	"context"
	"time"
)

// Client represents a Redis client interface for testing and abstraction
type Client interface {
	// HSetWithTTL sets hash fields and refreshes the key's TTL atomically
	HSetWithTTL(ctx context.Context, key string, fields map[string]interface{}, ttl time.Duration) error

	// HGetAll gets all fields from a hash
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// PushCapped pushes a value to the head of a list and trims it to max entries
	PushCapped(ctx context.Context, key string, value interface{}, max int64) error

	// LRange returns a range of elements from a list
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// Ping checks the connection to Redis
	Ping(ctx context.Context) error

	// Close closes the Redis connection
	Close() error
}
