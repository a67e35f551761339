package net

import (
	"context"
	"testing"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	if RequestID(ctx) != "" {
		t.Fatalf("empty ctx should have no request id")
	}
	ctx = WithRequest(ctx, "req-1")
	if got := RequestID(ctx); got != "req-1" {
		t.Fatalf("RequestID = %q", got)
	}
	if got := RequestID(WithRequest(ctx, "")); got != "req-1" {
		t.Fatalf("blank id must not overwrite, got %q", got)
	}
}

func TestDownloadID(t *testing.T) {
	ctx := WithDownloadID(context.Background(), "d-9")
	if got := DownloadID(ctx); got != "d-9" {
		t.Fatalf("DownloadID = %q", got)
	}
	if DownloadID(context.Background()) != "" {
		t.Fatalf("expected empty")
	}
}
