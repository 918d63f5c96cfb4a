package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisService_PingAndWait(t *testing.T) {
	mr := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc, err := NewRedisService(mr.Addr(), logger)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	ctx := context.Background()
	assert.NoError(t, svc.Ping(ctx))
	assert.NoError(t, svc.WaitForConnection(ctx))
	assert.NotNil(t, svc.Client())
}

func TestRedisService_URL(t *testing.T) {
	mr := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc, err := NewRedisService("redis://"+mr.Addr()+"/0", logger)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	assert.NoError(t, svc.Ping(context.Background()))
}

func TestRedisService_BadURL(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := NewRedisService("redis://%zz", logger)
	assert.Error(t, err)
}

func TestRedisService_WaitGivesUp(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewRedisService(addr, logger)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	svc.maxRetries = 2
	svc.retryDelay = 10 * time.Millisecond

	err = svc.WaitForConnection(context.Background())
	assert.Error(t, err)
}

func TestRedisService_WaitHonoursContext(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewRedisService("127.0.0.1:1", logger)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = svc.WaitForConnection(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
