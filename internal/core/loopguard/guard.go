// Package loopguard tracks which URLs are being verified and which
// upcoming downloads were started by the guard itself
package loopguard

import (
	"slices"
	"sync"
)

// Decision is the result of Admit
type Decision int

const (
	// Admitted means the caller now owns verification for the URL
	Admitted Decision = iota
	// Skipped means the event was caused by our own re-submission; the mark is consumed
	Skipped
	// Duplicate means another verification for the URL is in flight
	Duplicate
)

func (d Decision) String() string {
	switch d {
	case Admitted:
		return "admitted"
	case Skipped:
		return "skipped"
	case Duplicate:
		return "duplicate"
	}
	return "unknown"
}

// Guard holds the pending and skip-next sets. The zero value is not usable; use New
type Guard struct {
	mu      sync.Mutex
	pending map[string]struct{}
	skip    map[string]struct{}
}

// New returns an empty Guard
func New() *Guard {
	return &Guard{
		pending: map[string]struct{}{},
		skip:    map[string]struct{}{},
	}
}

// Admit consumes a skip mark, reports a duplicate, or marks url pending, as one step.
// The skip set is always consulted first
func (g *Guard) Admit(url string) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.skip[url]; ok {
		delete(g.skip, url)
		return Skipped
	}
	if _, ok := g.pending[url]; ok {
		return Duplicate
	}
	g.pending[url] = struct{}{}
	return Admitted
}

// TryMarkPending marks url pending unless it already is
func (g *Guard) TryMarkPending(url string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.pending[url]; ok {
		return false
	}
	g.pending[url] = struct{}{}
	return true
}

// ShouldSkip reports and consumes a skip mark for url
func (g *Guard) ShouldSkip(url string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.skip[url]; !ok {
		return false
	}
	delete(g.skip, url)
	return true
}

// IsPending reports whether url awaits a verdict
func (g *Guard) IsPending(url string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.pending[url]
	return ok
}

// MarkPending adds url to the pending set
func (g *Guard) MarkPending(url string) { g.set(g.pending, url) }

// ClearPending removes url from the pending set
func (g *Guard) ClearPending(url string) { g.unset(g.pending, url) }

// MarkSkipNext arranges for the next event on url to be skipped
func (g *Guard) MarkSkipNext(url string) { g.set(g.skip, url) }

// ClearSkipNext withdraws a skip mark
func (g *Guard) ClearSkipNext(url string) { g.unset(g.skip, url) }

func (g *Guard) set(m map[string]struct{}, url string) {
	g.mu.Lock()
	m[url] = struct{}{}
	g.mu.Unlock()
}

func (g *Guard) unset(m map[string]struct{}, url string) {
	g.mu.Lock()
	delete(m, url)
	g.mu.Unlock()
}

// State is a sorted copy of both sets
type State struct {
	Pending  []string `json:"pending"`
	SkipNext []string `json:"skip_next"`
}

// Empty reports whether both sets are empty
func (s State) Empty() bool { return len(s.Pending) == 0 && len(s.SkipNext) == 0 }

// Snapshot copies the current sets
func (g *Guard) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return State{Pending: keys(g.pending), SkipNext: keys(g.skip)}
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
