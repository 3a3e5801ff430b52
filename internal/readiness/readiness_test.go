package readiness

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForTCPImmediateSuccess(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	err = WaitForTCP(context.Background(), ln.Addr().String(), 5*time.Second, 50*time.Millisecond)
	assert.NoError(t, err)
}

func TestWaitForTCPEventualSuccess(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	// Re-open the same address after a delay to simulate slow startup.
	go func() {
		time.Sleep(300 * time.Millisecond)
		l2, err := net.Listen("tcp", addr)
		if err != nil {
			return
		}
		time.Sleep(5 * time.Second)
		l2.Close()
	}()

	err = WaitForTCP(context.Background(), addr, 10*time.Second, 50*time.Millisecond)
	assert.NoError(t, err)
}

func TestWaitForTCPTimeout(t *testing.T) {
	// Grab a port and close it so nothing is listening.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	start := time.Now()
	err = WaitForTCP(context.Background(), addr, 500*time.Millisecond, 50*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready within")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWaitForTCPContextCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	err = WaitForTCP(ctx, addr, time.Minute, 50*time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
}
