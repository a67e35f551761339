// Package api provides the HTTP API for the daemon
package api

import (
	"dlguard/internal/platform/config"
	"dlguard/internal/platform/logger"
	phttp "dlguard/internal/platform/net/http"

	"dlguard/internal/modkit"
	"dlguard/internal/modkit/httpkit"
	"dlguard/internal/modkit/module"
	"dlguard/internal/modkit/swaggerkit"

	metahttp "dlguard/internal/services/api/meta/http"
	metamod "dlguard/internal/services/api/meta/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Logger         *logger.Logger
	CORSOrigins    []string
	EnableSwagger  bool
	EnableProfiler bool

	// Modules built by the caller, mounted after meta under /api/v1
	Modules []module.Module

	// HealthChecks back /meta/health, keyed by the name reported in the payload
	HealthChecks map[string]metahttp.Check
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	deps := modkit.Deps{Cfg: opt.Config, Log: opt.Logger}

	mods := append([]module.Module{metamod.New(deps, opt.HealthChecks)}, opt.Modules...)

	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	httpkit.MountAPIV1(r, httpkit.CommonStack(opt.CORSOrigins), func(api httpkit.Router) {
		for _, m := range mods {
			m.MountRoutes(api)
			deps.Logger().Debug().Str("module", m.Name()).Msg("module mounted")
		}
	})
}
