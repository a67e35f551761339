// Package net carries request scoped identifiers across transports
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const keyDownloadID ctxKey = "download_id"

// WithRequest stores reqID where chi's RequestID middleware would put it
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, reqID)
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// WithDownloadID tags ctx with the host download id a request acts on
func WithDownloadID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, keyDownloadID, id)
}

// DownloadID returns the download id on the context if present
func DownloadID(ctx context.Context) string {
	v, _ := ctx.Value(keyDownloadID).(string)
	return v
}
