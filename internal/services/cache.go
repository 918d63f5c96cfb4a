package services

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Cache is the connection the event publisher runs on
type Cache interface {
	// Ping tests the cache connection
	Ping(ctx context.Context) error

	// Close closes the cache connection
	Close() error

	// WaitForConnection waits for cache to be available with retries
	WaitForConnection(ctx context.Context) error

	// Client exposes the underlying redis client for pub/sub
	Client() *redis.Client
}
