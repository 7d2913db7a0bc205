package netutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/giantswarm/devup/internal/sentinel"
)

const (
	// ErrIntervalNotPositive indicates a non-positive poll interval.
	ErrIntervalNotPositive = sentinel.Error("interval must be positive")
	// ErrTimeoutNotPositive indicates a non-positive timeout.
	ErrTimeoutNotPositive = sentinel.Error("timeout must be positive")
)

// dialTimeout bounds a single connection attempt.
const dialTimeout = 500 * time.Millisecond

// LocalAddr returns the loopback address for port.
func LocalAddr(port int) string {
	return net.JoinHostPort("localhost", strconv.Itoa(port))
}

// PortInUse reports whether something on this host already listens on the
// loopback port. It probes by binding, so a false result is only a snapshot.
func PortInUse(port int) bool {
	l, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return true
	}
	_ = l.Close()
	return false
}

// Accepting reports whether addr accepts a TCP connection right now.
func Accepting(ctx context.Context, addr string) bool {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// WaitListening polls addr every interval until it accepts a connection, ctx
// is done or timeout elapses. The first probe runs immediately.
func WaitListening(ctx context.Context, addr string, interval, timeout time.Duration, logger *slog.Logger) error {
	if interval <= 0 {
		return fmt.Errorf("wait for %s: %w", addr, ErrIntervalNotPositive)
	}
	if timeout <= 0 {
		return fmt.Errorf("wait for %s: %w", addr, ErrTimeoutNotPositive)
	}
	if logger == nil {
		logger = slog.Default()
	}

	// PollUntilContextTimeout calls the condition sequentially, so attempt
	// needs no synchronization.
	attempt := 0
	err := wait.PollUntilContextTimeout(ctx, interval, timeout, true, func(pollCtx context.Context) (bool, error) {
		attempt++
		if Accepting(pollCtx, addr) {
			logger.Debug("port accepting connections", "addr", addr, "attempt", attempt)
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("wait for %s to accept connections: %w", addr, err)
	}
	return nil
}
