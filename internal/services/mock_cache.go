package services

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// MockCache is a mock implementation of Cache for testing
type MockCache struct {
	PingFunc              func(ctx context.Context) error
	CloseFunc             func() error
	WaitForConnectionFunc func(ctx context.Context) error

	// Client returned by Client(); usually nil or a miniredis-backed client
	RedisClient *redis.Client

	// Track calls for testing
	PingCalls  int
	CloseCalls int
}

// NewMockCache creates a new mock cache
func NewMockCache() *MockCache {
	return &MockCache{}
}

// Ping mocks cache ping
func (m *MockCache) Ping(ctx context.Context) error {
	m.PingCalls++
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// Close mocks cache close
func (m *MockCache) Close() error {
	m.CloseCalls++
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// WaitForConnection mocks cache connection waiting
func (m *MockCache) WaitForConnection(ctx context.Context) error {
	if m.WaitForConnectionFunc != nil {
		return m.WaitForConnectionFunc(ctx)
	}
	return nil
}

func (m *MockCache) Client() *redis.Client {
	return m.RedisClient
}

// SetPingError sets up the mock to return an error on Ping
func (m *MockCache) SetPingError(err error) {
	m.PingFunc = func(ctx context.Context) error {
		return err
	}
}

// Ensure MockCache implements Cache interface
var _ Cache = (*MockCache)(nil)
