package swaggerkit

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"sync"

	"dlguard/internal/core/version"
	"dlguard/internal/platform/logger"
)

//go:embed openapi.json
var openapiDoc []byte

var (
	specOnce sync.Once
	specJSON []byte
)

// serveDocJSON serves the embedded document with runtime details filled in
func serveDocJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		specOnce.Do(func() { specJSON = buildSpec(openapiDoc) })
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(specJSON)
	}
}

// buildSpec stamps the build version, ensures a servers entry and
// gives every operation a 500 response pointing at ErrorResponse
func buildSpec(raw []byte) []byte {
	var spec map[string]any
	if err := json.Unmarshal(raw, &spec); err != nil {
		logger.Named("swagger").Error().Err(err).Msg("embedded openapi document is invalid")
		return raw
	}
	if info, ok := spec["info"].(map[string]any); ok {
		info["version"] = version.Info().Version
	}
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{map[string]any{"url": "/api/v1"}}
	}
	addDefaultError(spec)

	out, err := json.Marshal(spec)
	if err != nil {
		return raw
	}
	return out
}

func addDefaultError(spec map[string]any) {
	paths, ok := spec["paths"].(map[string]any)
	if !ok {
		return
	}
	errResp := map[string]any{
		"description": "Internal Server Error",
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
			},
		},
	}
	for _, p := range paths {
		node, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for _, opAny := range node {
			op, ok := opAny.(map[string]any)
			if !ok {
				continue
			}
			resps, ok := op["responses"].(map[string]any)
			if !ok {
				resps = map[string]any{}
				op["responses"] = resps
			}
			if _, exists := resps["500"]; !exists {
				resps["500"] = errResp
			}
		}
	}
}
