package service

import (
	"context"
	"fmt"

	"dlguard/internal/adapters/analysis"
	"dlguard/internal/core/filename"
	"dlguard/internal/core/loopguard"
	perr "dlguard/internal/platform/errors"
	"dlguard/internal/platform/logger"
	pstrings "dlguard/internal/platform/strings"

	dom "dlguard/internal/services/guard/domain"
)

// OnCreated is the host subscription callback. Admission and cancel+erase of
// the original transfer happen before it returns; analysis and replay
// continue on a tracked goroutine
func (s *Svc) OnCreated(ctx context.Context, ev dom.DownloadEvent) loopguard.Decision {
	ctx = logger.WithDownload(ctx, ev.ID, ev.URL)
	d := s.admit(ctx, ev)
	if d != loopguard.Admitted {
		return d
	}
	s.discard(ctx, ev)

	vctx, cancel := s.detach(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.verify(vctx, ev)
	}()
	return d
}

// Handle runs the whole protocol for ev on the calling goroutine
func (s *Svc) Handle(ctx context.Context, ev dom.DownloadEvent) dom.Outcome {
	ctx = logger.WithDownload(ctx, ev.ID, ev.URL)
	switch s.admit(ctx, ev) {
	case loopguard.Skipped:
		return dom.OutcomeSkipped
	case loopguard.Duplicate:
		return dom.OutcomeDuplicate
	}
	s.discard(ctx, ev)
	return s.verify(ctx, ev)
}

// admit decides whether ev needs verification. Duplicates lose their
// transfer too, so nothing unverified reaches disk
func (s *Svc) admit(ctx context.Context, ev dom.DownloadEvent) loopguard.Decision {
	log := logger.CNamed(ctx, "guard")

	var d loopguard.Decision
	switch {
	case s.tagged && ev.Origin == dom.OriginGuard:
		s.guard.ShouldSkip(ev.URL)
		d = loopguard.Skipped
	case s.tagged:
		d = loopguard.Admitted
		if !s.guard.TryMarkPending(ev.URL) {
			d = loopguard.Duplicate
		}
	default:
		d = s.guard.Admit(ev.URL)
	}

	switch d {
	case loopguard.Skipped:
		log.Debug().Msg("own re-submission, skipping analysis")
	case loopguard.Duplicate:
		log.Debug().Msg("analysis already in flight, dropping duplicate")
		s.discard(ctx, ev)
	default:
		log.Info().Msg("download intercepted")
	}
	return d
}

// discard cancels and erases the host transfer. Failures are logged only
func (s *Svc) discard(ctx context.Context, ev dom.DownloadEvent) {
	if ev.ID == "" {
		return
	}
	log := logger.CNamed(ctx, "guard")
	if err := s.host.Cancel(ctx, ev.ID); err != nil {
		log.Warn().Err(err).Msg("cancel original transfer failed")
	}
	if err := s.host.Erase(ctx, ev.ID); err != nil {
		log.Warn().Err(err).Msg("erase original transfer failed")
	}
}

// verify owns ev.URL's pending entry and always releases it
func (s *Svc) verify(ctx context.Context, ev dom.DownloadEvent) (out dom.Outcome) {
	log := logger.CNamed(ctx, "guard")
	notified := false
	name := ""

	defer s.guard.ClearPending(ev.URL)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		log.Error().Interface("panic", r).Msg("verification panicked, download blocked")
		out = dom.OutcomeFailed
		if !notified {
			s.emit(ctx, dom.OutcomeFailed, ev.URL, pstrings.FirstNonBlank(name, filename.Fallback))
		}
	}()

	res := s.resolver.Resolve(ctx, ev.Filename, ev.URL)
	name = res.Name

	v, err := s.analyzer.Analyze(ctx, ev.URL, name)
	switch {
	case err != nil:
		log.Error().Err(err).Str("code", perr.CodeOf(err).String()).Str("filename", name).Msg("analysis failed, download blocked")
		out = dom.OutcomeFailed
	case v.IsMalicious:
		log.Warn().Str("filename", name).Str("reason", v.Message).Msg("malicious download blocked")
		out = dom.OutcomeBlocked
	default:
		out = s.replay(ctx, ev, name, v)
	}

	notified = true
	s.emitVerdict(ctx, out, ev.URL, name, v)
	return out
}

// replay re-submits a cleared download and rolls back the skip mark on failure
func (s *Svc) replay(ctx context.Context, ev dom.DownloadEvent, name string, v analysis.Verdict) dom.Outcome {
	log := logger.CNamed(ctx, "guard")

	target, err := s.replayTarget(ev.URL, name, v)
	if err != nil {
		log.Error().Err(err).Msg("cannot replay cleared download")
		return dom.OutcomeResumeFailed
	}

	s.guard.MarkSkipNext(target.URL)
	id, err := s.host.Submit(ctx, target)
	if err != nil {
		s.guard.ClearSkipNext(target.URL)
		log.Error().Err(perr.WrapIf(err, perr.ErrorCodeResubmit, "host refused re-submission")).
			Str("target", target.URL).Msg("resume failed")
		return dom.OutcomeResumeFailed
	}
	log.Info().Str("new_id", id).Str("target", target.URL).Str("filename", target.Filename).Msg("cleared download resumed")
	return dom.OutcomeResumed
}

func (s *Svc) replayTarget(url, name string, v analysis.Verdict) (dom.SubmitRequest, error) {
	switch s.cfg.Mode {
	case dom.ReplaySafeCopy:
		if v.Filename == "" {
			return dom.SubmitRequest{}, perr.Rejectedf("verdict has no filename for the safe copy")
		}
		return dom.SubmitRequest{
			URL:      s.analyzer.SafeCopyURL(v.Filename),
			Filename: filename.Sanitize(v.Filename),
			Origin:   dom.OriginGuard,
		}, nil
	default:
		return dom.SubmitRequest{
			URL:      url,
			Filename: filename.Sanitize(name),
			Origin:   dom.OriginGuard,
		}, nil
	}
}

func (s *Svc) emitVerdict(ctx context.Context, out dom.Outcome, url, name string, v analysis.Verdict) {
	n := s.notification(out, url, name)
	if out == dom.OutcomeBlocked && v.Message != "" {
		n.Message += fmt.Sprintf(" (%s)", v.Message)
	}
	s.notifier.Emit(ctx, n)
}

func (s *Svc) emit(ctx context.Context, out dom.Outcome, url, name string) {
	s.notifier.Emit(ctx, s.notification(out, url, name))
}
