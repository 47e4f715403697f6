// Package testutil holds helpers shared by the fishclub package tests:
// throwaway SQLite datastores, fixture rows and channel waits.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// AsyncTimeout bounds waits for work done in background goroutines,
// such as catch events published after the HTTP reply.
const AsyncTimeout = 5 * time.Second

// Receive returns the next value from ch, failing the test after timeout.
func Receive[T any](t testing.TB, ch <-chan T, timeout time.Duration, what string) T {
	t.Helper()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v := <-ch:
		return v
	case <-timer.C:
		require.FailNowf(t, "timed out", "waiting %s for %s", timeout, what)
	}
	var zero T
	return zero
}
