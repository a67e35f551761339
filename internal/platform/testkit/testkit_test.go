package testkit

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestMustPanic(t *testing.T) {
	t.Parallel()
	MustPanic(t, func() { panic("boom") })
}

func TestMustNotPanic(t *testing.T) {
	t.Parallel()
	MustNotPanic(t, func() {})
}

func TestMustContain(t *testing.T) {
	t.Parallel()
	MustContain(t, "alpha beta gamma", "beta")
	MustNotContain(t, "alpha beta gamma", "delta")
}

func TestEventually(t *testing.T) {
	t.Parallel()
	var n atomic.Int32
	go func() {
		time.Sleep(20 * time.Millisecond)
		n.Store(1)
	}()
	Eventually(t, time.Second, func() bool { return n.Load() == 1 }, "flag set")
}

type clock struct{ now func() time.Time }

func TestSwap_RestoresAfterSubtest(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := clock{now: func() time.Time { return time.Time{} }}
	t.Run("swapped", func(t *testing.T) {
		Swap(t, &c.now, func() time.Time { return fixed })
		if !c.now().Equal(fixed) {
			t.Fatalf("now = %v", c.now())
		}
	})
	if !c.now().IsZero() {
		t.Fatal("swap not restored")
	}
}

func TestSerial_ExcludesConcurrentHolders(t *testing.T) {
	var inside, overlap atomic.Int32
	t.Run("group", func(t *testing.T) {
		for range 4 {
			t.Run("member", func(t *testing.T) {
				t.Parallel()
				Serial(t)
				if inside.Add(1) > 1 {
					overlap.Add(1)
				}
				time.Sleep(2 * time.Millisecond)
				inside.Add(-1)
			})
		}
	})
	if overlap.Load() != 0 {
		t.Fatalf("%d overlapping holders", overlap.Load())
	}
}
