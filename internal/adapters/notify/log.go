// Package notify delivers guard notifications to the log, to an in-memory
// history and to live websocket clients
package notify

import (
	"context"

	"dlguard/internal/platform/logger"

	dom "dlguard/internal/services/guard/domain"

	"github.com/rs/zerolog"
)

// Log writes every notification as a structured log line
type Log struct {
	log *logger.Logger
}

// NewLog returns a Log notifier; nil uses the root logger
func NewLog(l *logger.Logger) *Log {
	if l == nil {
		l = logger.Named("notify")
	}
	return &Log{log: l}
}

// Emit logs n at a level matching its severity
func (l *Log) Emit(_ context.Context, n dom.Notification) {
	var ev *zerolog.Event
	switch n.Severity {
	case dom.SeverityError:
		ev = l.log.Error()
	case dom.SeverityWarning:
		ev = l.log.Warn()
	default:
		ev = l.log.Info()
	}
	ev.Str("notification_id", n.ID).
		Str("outcome", string(n.Outcome)).
		Str("url", n.URL).
		Str("filename", n.Filename).
		Str("title", n.Title).
		Msg(n.Message)
}

// Fanout emits to every notifier in order
type Fanout []dom.Notifier

// Emit forwards n to each member, skipping nil entries
func (f Fanout) Emit(ctx context.Context, n dom.Notification) {
	for _, x := range f {
		if x != nil {
			x.Emit(ctx, n)
		}
	}
}
