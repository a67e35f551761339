// Package domain defines the guard's events, notifications and the ports it consumes
package domain

import "time"

// Origin says who started a download
type Origin string

const (
	// OriginUser is any download the guard did not start
	OriginUser Origin = "user"
	// OriginGuard marks the guard's own re-submission of a cleared download
	OriginGuard Origin = "guard"
)

// DownloadEvent describes a transfer the host just created
type DownloadEvent struct {
	ID  string `json:"id"`
	URL string `json:"url"`
	// Filename is the host-declared name, possibly empty or a full path
	Filename string `json:"filename,omitempty"`
	// Origin is only meaningful when the host implements OriginTagger
	Origin Origin `json:"origin,omitempty"`
}

// SubmitRequest asks the host to start a download
type SubmitRequest struct {
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
	Origin   Origin `json:"origin,omitempty"`
}

// Outcome is the terminal state of one event
type Outcome string

// Terminal outcomes. Only Blocked, Failed, Resumed and ResumeFailed notify
const (
	OutcomeSkipped      Outcome = "skipped"
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeBlocked      Outcome = "blocked"
	OutcomeFailed       Outcome = "failed"
	OutcomeResumed      Outcome = "resumed"
	OutcomeResumeFailed Outcome = "resume_failed"
)

// Notifies reports whether the outcome produces a user notification
func (o Outcome) Notifies() bool {
	switch o {
	case OutcomeBlocked, OutcomeFailed, OutcomeResumed, OutcomeResumeFailed:
		return true
	}
	return false
}

// Severity grades a notification
type Severity string

// Notification severities
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is what the user sees for a terminal outcome
type Notification struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	Outcome  Outcome   `json:"outcome"`
	URL      string    `json:"url"`
	Filename string    `json:"filename"`
	At       time.Time `json:"at"`
}

// ReplayMode selects how a cleared download is re-submitted
type ReplayMode string

const (
	// ReplayOrigin re-downloads the original URL under the sanitized resolved name
	ReplayOrigin ReplayMode = "origin"
	// ReplaySafeCopy downloads the service-hosted copy keyed by the verdict filename
	ReplaySafeCopy ReplayMode = "safe_copy"
)

// ScanResult is one entry of a batch scan
type ScanResult struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	IsMalicious bool   `json:"is_malicious"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
}
