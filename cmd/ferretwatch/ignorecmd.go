package ferretwatch

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ferretwatch/ferretwatch/internal/ignore"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ignore <pattern>...",
		Short: "Add patterns to " + ignore.FileName,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := absRoot(".")
			for _, p := range args {
				changed, err := ignore.Append(root, p)
				if err != nil {
					return err
				}
				if changed {
					fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", p)
				}
			}
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
}
