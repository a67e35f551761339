// Package module defines the minimal contract for a modkit module
package module

import phttp "dlguard/internal/platform/net/http"

// Module is what the API composition root mounts
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
