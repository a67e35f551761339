package httpkit

import (
	"net/http"

	"dlguard/internal/platform/net/middleware"
)

// CommonStack is the per-API middleware slice; origins feed CORS (nil allows any)
func CommonStack(origins []string) []func(http.Handler) http.Handler {
	return append(middleware.Defaults(),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: origins}),
	)
}
