package cli

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"dlguard/internal/modkit"
	"dlguard/internal/modkit/module"
	"dlguard/internal/platform/config"
	perr "dlguard/internal/platform/errors"
	"dlguard/internal/platform/logger"
	phttp "dlguard/internal/platform/net/http"
	"dlguard/internal/services/api"

	metahttp "dlguard/internal/services/api/meta/http"
	guardmod "dlguard/internal/services/guard/module"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type serveFlags struct {
	analysisURL string
	mode        string
	downloadDir string
	port        string
	concurrency int
	swagger     bool
	profiler    bool
}

func newServeCmd() *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the guard daemon: local download host, verification and HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.New().Prefix(envPrefix)
			cfg.Set("ANALYSIS_URL", f.analysisURL)
			cfg.Set("REPLAY_MODE", f.mode)
			cfg.Set("DOWNLOAD_DIR", f.downloadDir)
			cfg.Set("API_PORT", f.port)
			if f.concurrency > 0 {
				cfg.Set("SCAN_CONCURRENCY", strconv.Itoa(f.concurrency))
			}
			if cmd.Flags().Changed("swagger") {
				cfg.Set("API_SWAGGER", strconv.FormatBool(f.swagger))
			}
			if cmd.Flags().Changed("profiler") {
				cfg.Set("API_PROFILER", strconv.FormatBool(f.profiler))
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&f.analysisURL, "analysis-url", "", "analysis service base URL (DLGUARD_ANALYSIS_URL)")
	cmd.Flags().StringVar(&f.mode, "replay-mode", "", "origin|safe_copy (DLGUARD_REPLAY_MODE)")
	cmd.Flags().StringVar(&f.downloadDir, "download-dir", "", "where cleared files land (DLGUARD_DOWNLOAD_DIR)")
	cmd.Flags().StringVar(&f.port, "port", "", "listen address, e.g. :4000 (DLGUARD_API_PORT)")
	cmd.Flags().IntVar(&f.concurrency, "scan-concurrency", 0, "parallel analyses per batch scan (DLGUARD_SCAN_CONCURRENCY)")
	cmd.Flags().BoolVar(&f.swagger, "swagger", true, "serve /api/docs (DLGUARD_API_SWAGGER)")
	cmd.Flags().BoolVar(&f.profiler, "profiler", false, "serve pprof under /debug (DLGUARD_API_PROFILER)")
	return cmd
}

// serve runs the guard worker and the HTTP server until SIGINT/SIGTERM or a failure of either
func serve(ctx context.Context, cfg config.Conf) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MayURL("ANALYSIS_URL") == nil {
		return perr.InvalidArgf("%sANALYSIS_URL (or --analysis-url) must be an absolute http(s) URL", envPrefix)
	}

	l := logger.Get()
	deps := modkit.Deps{Cfg: cfg, Log: l}

	guard, err := guardmod.New(deps, guardmod.FromConfig(cfg))
	if err != nil {
		return err
	}

	apiCfg := cfg.Prefix("API_")
	srv := phttp.NewServer(apiCfg)
	api.Mount(srv.Router(), api.Options{
		Config:         apiCfg,
		Logger:         l,
		CORSOrigins:    apiCfg.MayCSV("CORS_ORIGINS", nil),
		EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
		Modules:        []module.Module{guard},
		HealthChecks:   map[string]metahttp.Check{"guard": guard.Healthy},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return guard.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })
	err = g.Wait()
	l.Info().Err(err).Msg("dlguard stopped")
	return err
}
