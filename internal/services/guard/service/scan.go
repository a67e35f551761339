package service

import (
	"context"
	"strings"

	"dlguard/internal/platform/logger"

	dom "dlguard/internal/services/guard/domain"

	"golang.org/x/sync/errgroup"
)

// Scan resolves and analyzes each distinct URL with bounded concurrency.
// It leaves guard state and the host alone. Results follow input order
func (s *Svc) Scan(ctx context.Context, urls []string) []dom.ScanResult {
	seen := make(map[string]struct{}, len(urls))
	uniq := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		uniq = append(uniq, u)
	}

	out := make([]dom.ScanResult, len(uniq))
	var g errgroup.Group
	g.SetLimit(s.cfg.ScanConcurrency)
	for i, u := range uniq {
		g.Go(func() error {
			out[i] = s.scanOne(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	logger.CNamed(ctx, "guard").Info().Int("urls", len(uniq)).Msg("attachment scan finished")
	return out
}

func (s *Svc) scanOne(ctx context.Context, u string) dom.ScanResult {
	name := s.resolver.Resolve(ctx, "", u).Name
	r := dom.ScanResult{URL: u, Filename: name}
	v, err := s.analyzer.Analyze(ctx, u, name)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.IsMalicious = v.IsMalicious
	r.Message = v.Message
	return r
}
