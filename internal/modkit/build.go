package modkit

import (
	"net/http"

	"dlguard/internal/modkit/httpkit"
	str "dlguard/internal/platform/strings"
)

// Built is the resolved option set modules read from
type Built struct {
	Name     string
	Prefix   string
	Mw       []func(http.Handler) http.Handler
	Ports    any
	Register func(httpkit.Router)
}

// Build applies opts and fills defaults
func Build(opts ...Option) Built {
	var c buildCfg
	for _, o := range opts {
		o(&c)
	}
	if c.register == nil {
		c.register = func(httpkit.Router) {}
	}
	return Built{
		Name:     c.name,
		Prefix:   c.prefix,
		Mw:       append([]func(http.Handler) http.Handler(nil), c.mw...),
		Ports:    c.ports,
		Register: c.register,
	}
}

// Mount mounts register under the built prefix with the built middleware.
// An empty prefix mounts directly on r
func (b Built) Mount(r httpkit.Router, register func(httpkit.Router)) {
	attach := func(rr httpkit.Router) {
		register(rr)
		b.Register(rr)
	}
	if b.Prefix == "" {
		r.Group(func(g httpkit.Router) {
			g.Use(b.Mw...)
			attach(g)
		})
		return
	}
	httpkit.MountUnder(r, str.MustPrefix(b.Prefix), b.Mw, attach)
}
