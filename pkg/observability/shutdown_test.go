package observability

import (
	"bytes"
	"context"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShutdownManager(t *testing.T) {
	logger := NewLogger(InfoLevel, &bytes.Buffer{})

	t.Run("custom timeout", func(t *testing.T) {
		sm := NewShutdownManager(logger, nil, 10*time.Second)
		assert.Equal(t, 10*time.Second, sm.shutdownTimeout)
	})

	t.Run("zero timeout uses default", func(t *testing.T) {
		sm := NewShutdownManager(logger, nil, 0)
		assert.Equal(t, 30*time.Second, sm.shutdownTimeout)
	})
}

func TestShutdownManager_RegisterShutdownFunc(t *testing.T) {
	sm := NewShutdownManager(NewLogger(InfoLevel, &bytes.Buffer{}), nil, time.Second)

	sm.RegisterShutdownFunc(func(ctx context.Context) error { return nil })
	sm.RegisterShutdownFunc(func(ctx context.Context) error { return nil })

	assert.Len(t, sm.shutdownFuncs, 2)
}

func TestShutdownManager_WaitForShutdown(t *testing.T) {
	sm := NewShutdownManager(NewLogger(ErrorLevel, &bytes.Buffer{}), nil, 5*time.Second)

	var called int32
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		atomic.AddInt32(&called, 1)
		return nil
	})
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		atomic.AddInt32(&called, 1)
		return nil
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- sm.WaitForShutdown()
	}()

	// Give WaitForShutdown time to install its signal handler.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&called))
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not complete")
	}
}
