package ferretwatch

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/ferretwatch/ferretwatch/internal/report"
	"github.com/ferretwatch/ferretwatch/pkg/core"
)

func init() {
	report.ToolVersion = core.Version
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ferretwatch %s\n", core.Version)
			if info, ok := debug.ReadBuildInfo(); ok {
				for _, s := range info.Settings {
					if s.Key == "vcs.revision" && s.Value != "" {
						fmt.Fprintf(cmd.OutOrStdout(), "commit %s\n", s.Value)
					}
				}
			}
		},
	}
	rootCmd.AddCommand(cmd)
}
