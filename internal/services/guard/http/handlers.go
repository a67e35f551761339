// Package http provides http transport for the guard, the local download host and notifications
package http

import (
	"context"
	stdhttp "net/http"

	"dlguard/internal/adapters/host/local"
	"dlguard/internal/modkit/httpkit"
	perr "dlguard/internal/platform/errors"

	dom "dlguard/internal/services/guard/domain"
)

// Downloads is the local host surface the routes drive
type Downloads interface {
	Start(ctx context.Context, rawURL, name string) (string, error)
	List() []local.Download
	Get(id string) (local.Download, error)
	Cancel(ctx context.Context, id string) error
	Erase(ctx context.Context, id string) error
}

// Notifications is the history and live stream surface
type Notifications interface {
	History() []dom.Notification
	ServeWS(w stdhttp.ResponseWriter, r *stdhttp.Request)
}

// Deps are the handler dependencies
type Deps struct {
	Guard         dom.GuardPort
	Scanner       dom.ScanPort
	Downloads     Downloads
	Notifications Notifications
}

type handlers struct{ d Deps }

// Register mounts the routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{d: d}

	httpkit.Get(r, "/guard/state", h.state)
	httpkit.PostJSON[dom.ScanInput](r, "/guard/scan", h.scan)

	httpkit.PostJSON[dom.StartInput](r, "/downloads", h.start)
	httpkit.Get(r, "/downloads", h.list)
	httpkit.Get(r, "/downloads/{id}", h.get)
	httpkit.Delete(r, "/downloads/{id}", h.remove)

	httpkit.Get(r, "/notifications", h.history)
	r.Get("/notifications/ws", d.Notifications.ServeWS)
}

// swagger:route GET /guard/state Guard guardState
// @Summary URLs awaiting a verdict and URLs whose next download is the guard's own
// @Tags guard
// @Produce json
// @Success 200 {object} loopguard.State "ok"
// @Router /guard/state [get]
func (h *handlers) state(_ *stdhttp.Request) (any, error) {
	return h.d.Guard.State(), nil
}

// swagger:route POST /guard/scan Guard guardScan
// @Summary Analyze attachment URLs without downloading them
// @Tags guard
// @Accept json
// @Produce json
// @Param payload body domain.ScanInput true "URLs"
// @Success 200 {object} domain.ScanOutput "ok"
// @Router /guard/scan [post]
func (h *handlers) scan(r *stdhttp.Request, in dom.ScanInput) (any, error) {
	return dom.ScanOutputFrom(h.d.Scanner.Scan(r.Context(), in.URLs)), nil
}

// swagger:route POST /downloads Downloads downloadStart
// @Summary Start a download through the guard
// @Tags downloads
// @Accept json
// @Produce json
// @Param payload body domain.StartInput true "Download"
// @Success 202 {object} domain.StartOutput "accepted"
// @Router /downloads [post]
func (h *handlers) start(r *stdhttp.Request, in dom.StartInput) (any, error) {
	id, err := h.d.Downloads.Start(r.Context(), in.URL, in.Filename)
	if err != nil {
		return nil, err
	}
	out := dom.StartOutput{ID: id, URL: in.URL}
	if d, err := h.d.Downloads.Get(id); err != nil || d.State == local.StateCancelled {
		out.Intercepted = true
	}
	return httpkit.Accepted(out), nil
}

// swagger:route GET /downloads Downloads downloadList
// @Summary Known downloads, oldest first
// @Tags downloads
// @Produce json
// @Success 200 {array} local.Download "ok"
// @Router /downloads [get]
func (h *handlers) list(_ *stdhttp.Request) (any, error) {
	return h.d.Downloads.List(), nil
}

// swagger:route GET /downloads/{id} Downloads downloadGet
// @Summary One download
// @Tags downloads
// @Produce json
// @Param id path string true "Download ID"
// @Success 200 {object} local.Download "ok"
// @Router /downloads/{id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	return h.d.Downloads.Get(httpkit.Param(r, "id"))
}

// swagger:route DELETE /downloads/{id} Downloads downloadDelete
// @Summary Cancel a download when active and forget it
// @Tags downloads
// @Param id path string true "Download ID"
// @Success 204 "deleted"
// @Router /downloads/{id} [delete]
func (h *handlers) remove(r *stdhttp.Request) (any, error) {
	id := httpkit.Param(r, "id")
	if err := h.d.Downloads.Cancel(r.Context(), id); err != nil && !perr.IsCode(err, perr.ErrorCodeConflict) {
		return nil, err
	}
	if err := h.d.Downloads.Erase(r.Context(), id); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}

// swagger:route GET /notifications Notifications notificationHistory
// @Summary Recent notifications, oldest first
// @Tags notifications
// @Produce json
// @Success 200 {array} domain.Notification "ok"
// @Router /notifications [get]
func (h *handlers) history(_ *stdhttp.Request) (any, error) {
	return h.d.Notifications.History(), nil
}
