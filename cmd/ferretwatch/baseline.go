package ferretwatch

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ferretwatch/ferretwatch/internal/engine"
	"github.com/ferretwatch/ferretwatch/internal/report"
	"github.com/ferretwatch/ferretwatch/pkg/core"
)

func init() {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage baselines",
	}

	update := &cobra.Command{
		Use:   "update [dir]",
		Short: "Accept every current finding into the baseline",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := absRoot(".")
			if len(args) == 1 {
				root = absRoot(args[0])
			}
			settings, err := loadSettings(root)
			if err != nil {
				return err
			}
			sc, err := core.NewScannerContext(settings)
			if err != nil {
				return err
			}
			res, err := sc.ScanFiles(cmd.Context(), engine.Config{
				Root:            root,
				IncludeGlobs:    settings.Include,
				ExcludeGlobs:    settings.Exclude,
				MaxBytes:        settings.MaxBytes,
				DefaultExcludes: settings.DefaultExcludes,
				NoCache:         true,
				Threads:         flagThreads,
			})
			if err != nil {
				return err
			}
			path := filepath.Join(root, DefaultBaselineFile)
			if err := report.SaveBaseline(path, res.Findings); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Baseline updated: %d findings in %s\n", len(res.Findings), path)
			return nil
		},
	}

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(update)
}
