package backend

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/config"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/publisher"
)

func TestOpenUnknownBackend(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Publisher.Backend = "smoke-signals"
	cfg.Publisher.Topic = "t"

	_, err = Open(context.Background(), cfg)
	var connErr *publisher.ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, "smoke-signals", connErr.Backend)
}

func TestOpenUnreachableRedis(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Publisher.Backend = config.BackendRedis
	cfg.Publisher.Topic = "iot-sensor-data"
	// reserved port, nothing listens there
	cfg.Redis.Addr = "127.0.0.1:1"

	_, err = Open(context.Background(), cfg)
	var connErr *publisher.ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, config.BackendRedis, connErr.Backend)
	assert.NotEmpty(t, connErr.Hint)
}

func TestOpenBoundsPreflight(t *testing.T) {
	// accepts connections but never answers
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Publisher.Backend = config.BackendRedis
	cfg.Publisher.Topic = "iot-sensor-data"
	cfg.Publisher.PreflightTimeout = 200 * time.Millisecond
	cfg.Redis.Addr = ln.Addr().String()

	start := time.Now()
	_, err = Open(context.Background(), cfg)

	var connErr *publisher.ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Less(t, time.Since(start), 2*time.Second)
}
