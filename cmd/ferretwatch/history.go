package ferretwatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ferretwatch/ferretwatch/internal/audit"
)

var (
	flagHistoryLimit int
	flagHistoryJSON  bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "history [dir]",
		Short: "Show scans recorded with --audit, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHistory,
	}
	cmd.Flags().IntVar(&flagHistoryLimit, "limit", 10, "show at most this many scans (0 for all)")
	cmd.Flags().BoolVar(&flagHistoryJSON, "json", false, "print records as JSON")
	rootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	root := absRoot(".")
	if len(args) == 1 {
		root = absRoot(args[0])
	}
	al := audit.NewAuditLog(root)
	records, err := al.LoadHistory()
	if errors.Is(err, fs.ErrNotExist) {
		records, err = nil, nil
	}
	if err != nil {
		return err
	}
	if flagHistoryLimit > 0 && len(records) > flagHistoryLimit {
		records = records[:flagHistoryLimit]
	}

	out := cmd.OutOrStdout()
	if flagHistoryJSON {
		if records == nil {
			records = []audit.ScanRecord{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	if len(records) == 0 {
		fmt.Fprintf(out, "No scans recorded in %s\n", al.Path())
		return nil
	}
	table := tablewriter.NewWriter(out)
	table.Header("TIME", "SCAN", "FINDINGS", "NEW", "FILES", "DURATION", "ABORTED")
	for _, r := range records {
		_ = table.Append([]string{
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.ScanID,
			strconv.Itoa(r.TotalFindings),
			strconv.Itoa(r.NewFindings),
			strconv.Itoa(r.FilesScanned),
			r.Duration,
			strconv.FormatBool(r.Aborted),
		})
	}
	return table.Render()
}
