// Package service runs the cancel, analyze, replay and notify protocol for every new download
package service

import (
	"context"
	"sync"
	"time"

	"dlguard/internal/adapters/analysis"
	"dlguard/internal/core/filename"
	"dlguard/internal/core/loopguard"
	"dlguard/internal/modkit"
	"dlguard/internal/platform/logger"

	dom "dlguard/internal/services/guard/domain"

	"github.com/google/uuid"
)

// Analyzer is the remote classification call
type Analyzer interface {
	Analyze(ctx context.Context, url, filename string) (analysis.Verdict, error)
	SafeCopyURL(filename string) string
}

// Resolver picks a filename from the event and the URL
type Resolver interface {
	Resolve(ctx context.Context, declared, rawURL string) filename.Resolution
}

// Config controls the orchestrator
type Config struct {
	Mode            dom.ReplayMode
	ScanConcurrency int
}

// Wiring holds the collaborators; Guard defaults to a fresh loopguard.Guard
type Wiring struct {
	Host     dom.Host
	Notifier dom.Notifier
	Analyzer Analyzer
	Resolver Resolver
	Guard    *loopguard.Guard
}

// Svc implements the guard, scan and worker ports
type Svc struct {
	host     dom.Host
	notifier dom.Notifier
	analyzer Analyzer
	resolver Resolver
	guard    *loopguard.Guard
	tagged   bool
	cfg      Config

	mu   sync.RWMutex
	base context.Context
	wg   sync.WaitGroup

	log   *logger.Logger
	now   func() time.Time
	newID func() string
}

// New constructs the service
func New(deps modkit.Deps, cfg Config, w Wiring) *Svc {
	if cfg.Mode == "" {
		cfg.Mode = dom.ReplayOrigin
	}
	if cfg.ScanConcurrency <= 0 {
		cfg.ScanConcurrency = 4
	}
	g := w.Guard
	if g == nil {
		g = loopguard.New()
	}
	tagged := false
	if t, ok := w.Host.(dom.OriginTagger); ok {
		tagged = t.TagsOrigin()
	}
	return &Svc{
		host:     w.Host,
		notifier: w.Notifier,
		analyzer: w.Analyzer,
		resolver: w.Resolver,
		guard:    g,
		tagged:   tagged,
		cfg:      cfg,
		base:     context.Background(),
		log:      deps.Logger(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Run subscribes to the host and blocks until ctx ends, then waits for in-flight verifications.
// Cancelling ctx also cancels their network calls
func (s *Svc) Run(ctx context.Context) error {
	s.mu.Lock()
	s.base = ctx
	s.mu.Unlock()

	unsubscribe := s.host.Subscribe(func(ectx context.Context, ev dom.DownloadEvent) {
		s.OnCreated(ectx, ev)
	})
	s.log.Info().Str("mode", string(s.cfg.Mode)).Bool("origin_tagging", s.tagged).Msg("guard subscribed to host")

	<-ctx.Done()
	unsubscribe()
	s.Wait()
	s.log.Info().Msg("guard stopped")
	return nil
}

// State snapshots the pending and skip-next sets
func (s *Svc) State() loopguard.State { return s.guard.Snapshot() }

// Wait blocks until every verification started by OnCreated has finished
func (s *Svc) Wait() { s.wg.Wait() }

// detach keeps ctx's values but ties its lifetime to the Run context
// instead of the caller, which may be a short HTTP request
func (s *Svc) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	s.mu.RLock()
	base := s.base
	s.mu.RUnlock()

	vctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(base, cancel)
	return vctx, func() {
		stop()
		cancel()
	}
}
