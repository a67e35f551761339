package testkit

import (
	"sync"
	"testing"
)

var serial sync.Mutex

// Swap points *target at v until the test ends. Works for clock and ID
// generator fields as well as package-level vars
func Swap[T any](t *testing.T, target *T, v T) {
	t.Helper()
	prev := *target
	t.Cleanup(func() { *target = prev })
	*target = v
}

// Serial holds a process-wide lock for the rest of the test. Use it in tests
// that touch process state such as env vars or the root logger
func Serial(t *testing.T) {
	t.Helper()
	serial.Lock()
	t.Cleanup(serial.Unlock)
}
