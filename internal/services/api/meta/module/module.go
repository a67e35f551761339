// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"time"

	"dlguard/internal/core/version"
	"dlguard/internal/modkit"
	"dlguard/internal/modkit/httpkit"

	metahttp "dlguard/internal/services/api/meta/http"
)

// Module implements the modkit.Module interface
type Module struct {
	deps      modkit.Deps
	built     modkit.Built
	startedAt time.Time
	checks    map[string]metahttp.Check
}

// New constructs a meta module. checks back /meta/health and may be nil
func New(deps modkit.Deps, checks map[string]metahttp.Check, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	return &Module{deps: deps, built: b, startedAt: time.Now(), checks: checks}
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	m.built.Mount(r, func(rr httpkit.Router) {
		metahttp.Register(rr, metahttp.Deps{
			ServiceName: version.Info().Service,
			StartedAt:   m.startedAt,
			Checks:      m.checks,
		})
	})
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return m.built.Name }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
