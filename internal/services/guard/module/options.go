package module

import (
	"os"
	"path/filepath"
	"time"

	"dlguard/internal/platform/config"

	dom "dlguard/internal/services/guard/domain"
)

// Options controls the analysis client, filename probing, replay and the local host
type Options struct {
	AnalysisURL     string
	AnalysisTimeout time.Duration // 0 leaves the call bounded only by the daemon context
	SafeCopyPath    string
	ProbeTimeout    time.Duration
	DisableProbe    bool
	Mode            dom.ReplayMode
	ScanConcurrency int
	DownloadDir     string
	NotifyHistory   int
}

// FromConfig reads the guard keys from cfg, which callers scope with Prefix("DLGUARD_").
// ANALYSIS_URL is required
func FromConfig(cfg config.Conf) Options {
	return Options{
		AnalysisURL:     cfg.MustURL("ANALYSIS_URL").String(),
		AnalysisTimeout: cfg.MayDuration("ANALYSIS_TIMEOUT", 0),
		SafeCopyPath:    cfg.MayString("SAFE_COPY_PATH", "/download/"),
		ProbeTimeout:    cfg.MayDuration("PROBE_TIMEOUT", 5*time.Second),
		DisableProbe:    cfg.MayBool("PROBE_DISABLE", false),
		Mode:            dom.ReplayMode(cfg.MayEnum("REPLAY_MODE", string(dom.ReplayOrigin), string(dom.ReplayOrigin), string(dom.ReplaySafeCopy))),
		ScanConcurrency: cfg.MayInt("SCAN_CONCURRENCY", 4),
		DownloadDir:     cfg.MayString("DOWNLOAD_DIR", defaultDownloadDir()),
		NotifyHistory:   cfg.MayInt("NOTIFY_HISTORY", 100),
	}
}

func defaultDownloadDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Downloads", "dlguard")
	}
	return filepath.Join(os.TempDir(), "dlguard")
}
