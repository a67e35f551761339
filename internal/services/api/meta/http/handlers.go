// Package http provides meta endpoints
package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"dlguard/internal/core/version"
	"dlguard/internal/modkit/httpkit"
	perr "dlguard/internal/platform/errors"
)

// Check reports whether one part of the daemon is able to do its job
type Check func(ctx context.Context) error

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Now         func() time.Time
	Checks      map[string]Check
}

type handlers struct {
	deps Deps
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	if d.Now == nil {
		d.Now = time.Now
	}
	h := &handlers{deps: d}

	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
}

// HealthResponse is the health payload
// swagger:model
type HealthResponse struct {
	OK      bool              `json:"ok"               example:"true"`
	Service string            `json:"service"          example:"dlguard"`
	Now     string            `json:"now"              example:"2026-03-01T13:05:00Z"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// ServiceResponse describes service info
type ServiceResponse struct {
	Name    string `json:"name"    example:"dlguard"`
	Started string `json:"started" example:"2026-03-01T13:00:00Z"`
	Uptime  int64  `json:"uptime"  example:"300"`
}

// swagger:route GET /meta/health Meta metaHealth
// @Summary Liveness of the daemon and its guard worker
// @Tags Meta
// @Produce json
// @Success 200 {object} HealthResponse "ok"
// @Failure 503 {object} phttp.Envelope "a check failed"
// @Router /meta/health [get]
func (h *handlers) health(r *http.Request) (any, error) {
	names := make([]string, 0, len(h.deps.Checks))
	for name := range h.deps.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	res := HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Now:     h.deps.Now().UTC().Format(time.RFC3339),
	}
	for _, name := range names {
		if err := h.deps.Checks[name](r.Context()); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "health check %s failed", name)
		}
		if res.Checks == nil {
			res.Checks = map[string]string{}
		}
		res.Checks[name] = "ok"
	}
	return res, nil
}

// swagger:route GET /meta/version Meta metaVersion
// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 {object} version.BuildInfo "ok"
// @Router /meta/version [get]
func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(), nil
}

// swagger:route GET /meta/service Meta metaService
// @Summary Service info and uptime
// @Tags Meta
// @Produce json
// @Success 200 {object} ServiceResponse "ok"
// @Router /meta/service [get]
func (h *handlers) service(_ *http.Request) (any, error) {
	return ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(h.deps.Now().Sub(h.deps.StartedAt) / time.Second),
	}, nil
}
