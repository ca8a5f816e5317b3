package ferretwatch

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ferretwatch/ferretwatch/pkg/core"
)

var (
	flagRulesCategory string
	flagRulesIDs      bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the rule catalog in scan order",
		RunE:  runRules,
	}
	cmd.Flags().StringVar(&flagRulesCategory, "category", "", "only list rules in this category")
	cmd.Flags().BoolVar(&flagRulesIDs, "ids", false, "print rule IDs only, one per line")
	rootCmd.AddCommand(cmd)
}

func runRules(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(absRoot("."))
	if err != nil {
		return err
	}
	sc, err := core.NewScannerContext(settings)
	if err != nil {
		return err
	}
	rules := sc.Catalog().AllInPriorityOrder()
	if flagRulesCategory != "" {
		rules = sc.Catalog().ByCategory(flagRulesCategory)
	}

	out := cmd.OutOrStdout()
	if flagRulesIDs {
		for _, r := range rules {
			fmt.Fprintln(out, r.ID)
		}
		return nil
	}
	table := tablewriter.NewWriter(out)
	table.Header("TIER", "ID", "TYPE", "RISK", "CATEGORY")
	for _, r := range rules {
		_ = table.Append([]string{r.Tier.String(), r.ID, r.Type, string(r.RiskLevel), r.Category})
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d rules in %d categories\n", len(rules), len(sc.Catalog().Categories()))
	return nil
}
