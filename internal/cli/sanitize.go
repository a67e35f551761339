package cli

import (
	"fmt"

	"dlguard/internal/core/filename"

	"github.com/spf13/cobra"
)

func newSanitizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sanitize <name>...",
		Short: "Print the on-disk name dlguard would use for each argument",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			for _, a := range args {
				fmt.Fprintln(cmd.OutOrStdout(), filename.Sanitize(a))
			}
		},
	}
}
