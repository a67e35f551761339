package domain

import (
	"context"

	"dlguard/internal/core/loopguard"
)

// Host is the download subsystem the guard sits in front of
type Host interface {
	Cancel(ctx context.Context, id string) error
	Erase(ctx context.Context, id string) error
	Submit(ctx context.Context, req SubmitRequest) (string, error)
	// Subscribe registers fn for download-created events. fn runs on the
	// host's goroutine before the transfer writes anything
	Subscribe(fn func(context.Context, DownloadEvent)) (unsubscribe func())
}

// OriginTagger is implemented by hosts that carry SubmitRequest.Origin
// through to the DownloadEvent of the submission it caused
type OriginTagger interface {
	TagsOrigin() bool
}

// Notifier delivers notifications, fire-and-forget
type Notifier interface {
	Emit(ctx context.Context, n Notification)
}

// GuardPort is the orchestrator surface other modules use
type GuardPort interface {
	OnCreated(ctx context.Context, ev DownloadEvent) loopguard.Decision
	State() loopguard.State
	Wait()
}

// ScanPort analyzes URLs without touching guard state or the host
type ScanPort interface {
	Scan(ctx context.Context, urls []string) []ScanResult
}

// WorkerPort subscribes to the host until ctx ends
type WorkerPort interface {
	Run(ctx context.Context) error
}
