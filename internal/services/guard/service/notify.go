package service

import (
	"fmt"

	dom "dlguard/internal/services/guard/domain"
)

type template struct {
	title    string
	format   string
	severity dom.Severity
}

var templates = map[dom.Outcome]template{
	dom.OutcomeBlocked: {
		title:    "Download blocked",
		format:   "%s was identified as malicious.",
		severity: dom.SeverityError,
	},
	dom.OutcomeFailed: {
		title:    "Analysis service error",
		format:   "An error occurred while checking %s. The download is blocked.",
		severity: dom.SeverityWarning,
	},
	dom.OutcomeResumed: {
		title:    "Download allowed",
		format:   "%s is safe. Resuming the download.",
		severity: dom.SeverityInfo,
	},
	dom.OutcomeResumeFailed: {
		title:    "Download resume failed",
		format:   "Could not resume the download of %s. Please try again manually.",
		severity: dom.SeverityWarning,
	},
}

// notification names the resolved, unsanitized filename, as the user knows it
func (s *Svc) notification(out dom.Outcome, url, name string) dom.Notification {
	t, ok := templates[out]
	if !ok {
		t = templates[dom.OutcomeFailed]
	}
	return dom.Notification{
		ID:       s.newID(),
		Title:    t.title,
		Message:  fmt.Sprintf(t.format, name),
		Severity: t.severity,
		Outcome:  out,
		URL:      url,
		Filename: name,
		At:       s.now().UTC(),
	}
}
