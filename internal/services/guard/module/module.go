// Package module wires the guard, its collaborators and its routes using modkit
package module

import (
	"context"

	"dlguard/internal/adapters/analysis"
	"dlguard/internal/adapters/host/local"
	"dlguard/internal/adapters/notify"
	"dlguard/internal/core/filename"
	"dlguard/internal/core/version"
	"dlguard/internal/modkit"
	"dlguard/internal/modkit/httpkit"
	perr "dlguard/internal/platform/errors"
	"dlguard/internal/platform/logger"

	ghttp "dlguard/internal/services/guard/http"
	gsvc "dlguard/internal/services/guard/service"
)

// Module owns the guard service, the local download host and the notification hub
type Module struct {
	deps  modkit.Deps
	built modkit.Built

	svc  *gsvc.Svc
	host *local.Manager
	hub  *notify.Hub

	ports Ports
}

// New constructs the guard module. It fails on an unusable analysis URL or download dir
func New(deps modkit.Deps, o Options, opts ...modkit.Option) (*Module, error) {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("guard"),
	}, opts...)...)

	client, err := analysis.NewClient(analysis.Options{
		BaseURL:      o.AnalysisURL,
		Timeout:      o.AnalysisTimeout,
		SafeCopyPath: o.SafeCopyPath,
	})
	if err != nil {
		return nil, err
	}
	host, err := local.NewManager(local.Options{Dir: o.DownloadDir, UserAgent: version.UserAgent()})
	if err != nil {
		return nil, err
	}
	hub := notify.NewHub(o.NotifyHistory)

	svc := gsvc.New(deps, gsvc.Config{Mode: o.Mode, ScanConcurrency: o.ScanConcurrency}, gsvc.Wiring{
		Host:     host,
		Notifier: notify.Fanout{notify.NewLog(logger.Named("notify")), hub},
		Analyzer: client,
		Resolver: filename.NewResolver(filename.Options{
			ProbeTimeout: o.ProbeTimeout,
			UserAgent:    version.UserAgent(),
			DisableProbe: o.DisableProbe,
		}),
	})

	m := &Module{
		deps:  deps,
		built: b,
		svc:   svc,
		host:  host,
		hub:   hub,
		ports: Ports{Guard: svc, Scanner: svc, Worker: svc},
	}
	deps.Logger().Info().
		Str("analysis_url", client.BaseURL()).
		Str("mode", string(o.Mode)).
		Str("download_dir", host.Dir()).
		Msg("guard module ready")
	return m, nil
}

// Run subscribes the guard to the local host until ctx ends, then stops
// transfers and closes live notification streams
func (m *Module) Run(ctx context.Context) error {
	err := m.svc.Run(ctx)
	_ = m.host.Close()
	m.hub.Close()
	return err
}

// Healthy fails while the guard is not subscribed to the download host, so
// downloads started now would not be intercepted
func (m *Module) Healthy(context.Context) error {
	if m.host.Subscribers() == 0 {
		return perr.Unavailablef("guard is not subscribed to the download host")
	}
	return nil
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	m.built.Mount(r, func(rr httpkit.Router) {
		ghttp.Register(rr, ghttp.Deps{
			Guard:         m.svc,
			Scanner:       m.svc,
			Downloads:     m.host,
			Notifications: m.hub,
		})
	})
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return m.built.Name }
