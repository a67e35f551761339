// Package cli builds the dlguard command tree
package cli

import (
	"fmt"

	"dlguard/internal/core/version"
	"dlguard/internal/platform/config"
	"dlguard/internal/platform/logger"

	"github.com/spf13/cobra"
)

// envPrefix scopes every daemon setting; flags export into it
const envPrefix = "DLGUARD_"

// ExitError carries a process exit code out of a command
type ExitError struct {
	code int
	msg  string
}

func (e *ExitError) Error() string { return e.msg }

// Code is the exit status for the process
func (e *ExitError) Code() int { return e.code }

// Message is printed to stderr when non-empty
func (e *ExitError) Message() string { return e.msg }

// NewRoot returns the dlguard root command
func NewRoot() *cobra.Command {
	var logLevel, logFormat string
	cmd := &cobra.Command{
		Use:           "dlguard",
		Short:         "dlguard holds every download until an analysis service clears it",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Info().Version,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			lc := config.New().Prefix("LOG_")
			lc.Set("LEVEL", logLevel)
			lc.Set("FORMAT", logFormat)
			opts := logger.FromEnv()
			opts.Writer = cmd.ErrOrStderr()
			logger.Init(opts)
		},
	}
	cmd.SetVersionTemplate(fmt.Sprintf("dlguard {{.Version}} (%s)\n", version.Info().Commit))

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace|debug|info|warn|error); overrides LOG_LEVEL")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (console|json); overrides LOG_FORMAT")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newSanitizeCmd())
	return cmd
}
