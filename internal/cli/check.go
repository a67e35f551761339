package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"dlguard/internal/adapters/analysis"
	"dlguard/internal/core/filename"
	"dlguard/internal/core/version"
	"dlguard/internal/platform/config"
	perr "dlguard/internal/platform/errors"

	"github.com/spf13/cobra"
)

// ExitMalicious is the exit status of check for a malicious verdict
const ExitMalicious = 2

type checkResult struct {
	URL         string          `json:"url"`
	Filename    string          `json:"filename"`
	Source      filename.Source `json:"source"`
	IsMalicious bool            `json:"is_malicious"`
	Message     string          `json:"message,omitempty"`
}

func newCheckCmd() *cobra.Command {
	var (
		analysisURL string
		declared    string
		timeout     time.Duration
		noProbe     bool
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "check <url>",
		Short: "Resolve a filename for url and ask the analysis service once",
		Long:  "Resolve a filename for url and ask the analysis service once. Exits 2 when the verdict is malicious.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New().Prefix(envPrefix)
			cfg.Set("ANALYSIS_URL", analysisURL)

			client, err := analysis.NewClient(analysis.Options{
				BaseURL:      cfg.MayString("ANALYSIS_URL", ""),
				Timeout:      timeout,
				SafeCopyPath: cfg.MayString("SAFE_COPY_PATH", ""),
			})
			if err != nil {
				return err
			}
			res := filename.NewResolver(filename.Options{
				ProbeTimeout: cfg.MayDuration("PROBE_TIMEOUT", 5*time.Second),
				UserAgent:    version.UserAgent(),
				DisableProbe: noProbe,
			}).Resolve(cmd.Context(), declared, args[0])

			v, err := client.Analyze(cmd.Context(), args[0], res.Name)
			if err != nil {
				return perr.Wrapf(err, perr.CodeOf(err), "check %s", args[0])
			}
			out := checkResult{
				URL:         args[0],
				Filename:    res.Name,
				Source:      res.Source,
				IsMalicious: v.IsMalicious,
				Message:     v.Message,
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(out); err != nil {
					return err
				}
			} else {
				verdict := "clean"
				if out.IsMalicious {
					verdict = "MALICIOUS"
				}
				fmt.Fprintf(w, "%s\t%s\t(%s from %s)\n", verdict, out.URL, out.Filename, out.Source)
				if out.Message != "" {
					fmt.Fprintf(w, "\t%s\n", out.Message)
				}
			}
			if out.IsMalicious {
				return &ExitError{code: ExitMalicious}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&analysisURL, "analysis-url", "", "analysis service base URL (DLGUARD_ANALYSIS_URL)")
	cmd.Flags().StringVar(&declared, "filename", "", "declared filename, tried before any other source")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "analysis call timeout")
	cmd.Flags().BoolVar(&noProbe, "no-probe", false, "skip the HEAD probe for Content-Disposition")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
