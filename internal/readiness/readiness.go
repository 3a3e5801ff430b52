// Package readiness implements wait-for-precondition checks with bounded
// timeouts.
//
// The entrypoint supervisor uses these checks to gate the start of the API
// sidecar on the primary application actually accepting connections,
// instead of assuming readiness after a fixed delay.
package readiness

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/taskmatrix/tmx/internal/logger"
)

const (
	// DefaultTimeout bounds how long WaitForTCP polls before giving up.
	// Model loading dominates startup, so the bound is generous.
	DefaultTimeout = 180 * time.Second

	// DefaultInterval is the delay between connection attempts.
	DefaultInterval = 500 * time.Millisecond
)

// WaitForTCP polls addr until a TCP connection is accepted, the timeout
// elapses, or ctx is cancelled.
//
// Each probe is itself bounded by the poll interval, so a black-holed
// address cannot stall a whole attempt cycle.
//
// Parameters:
//   - ctx: cancels the wait early (e.g. on shutdown signal)
//   - addr: "host:port" to probe
//   - timeout: total time budget; <= 0 selects DefaultTimeout
//   - interval: delay between probes; <= 0 selects DefaultInterval
//
// Returns:
//   - nil once a connection is accepted
//   - ctx.Err() if the context is cancelled first
//   - Error if the address never accepts within the timeout
func WaitForTCP(ctx context.Context, addr string, timeout, interval time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	deadline := time.Now().Add(timeout)
	logger.Info("Waiting for %s to accept connections (timeout: %s)", addr, timeout)

	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%s not ready within %s (%d attempts)", addr, timeout, attempts)
		}

		conn, err := net.DialTimeout("tcp", addr, interval)
		attempts++
		if err == nil {
			conn.Close()
			logger.Info("%s is ready after %d attempt(s)", addr, attempts)
			return nil
		}
		logger.Debug("Readiness probe %d for %s failed: %v", attempts, addr, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
