package ferretwatch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ferretwatch/ferretwatch/internal/audit"
	"github.com/ferretwatch/ferretwatch/internal/cache"
	"github.com/ferretwatch/ferretwatch/internal/config"
	"github.com/ferretwatch/ferretwatch/internal/engine"
	"github.com/ferretwatch/ferretwatch/internal/log"
	"github.com/ferretwatch/ferretwatch/internal/report"
	"github.com/ferretwatch/ferretwatch/internal/types"
	"github.com/ferretwatch/ferretwatch/pkg/core"
)

// DefaultBaselineFile is read from the scan root unless --baseline names
// another file.
const DefaultBaselineFile = "ferretwatch.baseline.json"

var (
	flagJSON            bool
	flagSARIF           bool
	flagText            bool
	flagStats           bool
	flagShowContext     bool
	flagBudget          time.Duration
	flagChunkSize       int
	flagUnitsPerSlice   int
	flagInclude         string
	flagExclude         string
	flagMaxBytes        int64
	flagDefaultExcludes bool
	flagCategories      string
	flagDisable         string
	flagRules           string
	flagFailOn          string
	flagNoCache         bool
	flagBaseline        string
	flagAudit           bool
	flagCopy            bool
	flagProgress        bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Scan files, directories or stdin (-) for secrets",
		Example: `
ferretwatch scan
ferretwatch scan ./services --categories aws,github --fail-on high
cat .env | ferretwatch scan - --json`,
		RunE: runScan,
	}
	rootCmd.AddCommand(cmd)

	f := cmd.Flags()
	f.BoolVar(&flagJSON, "json", false, "emit JSON")
	f.BoolVar(&flagSARIF, "sarif", false, "emit SARIF 2.1.0")
	f.BoolVar(&flagText, "text", false, "emit plain columnar text instead of a table")
	f.BoolVar(&flagStats, "stats", false, "include scan statistics in JSON output")
	f.BoolVar(&flagShowContext, "show-context", false, "print the masked context of each finding (text output)")
	f.DurationVar(&flagBudget, "budget", 16*time.Millisecond, "time slice before the scanner yields")
	f.IntVar(&flagChunkSize, "chunk-size", 64<<10, "bytes of content examined per unit")
	f.IntVar(&flagUnitsPerSlice, "units-per-slice", 0, "yield after this many units (0 = time budget only)")
	f.StringVar(&flagInclude, "include", "", "comma-separated include globs")
	f.StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	f.Int64Var(&flagMaxBytes, "max-bytes", 1<<20, "skip files larger than this")
	f.BoolVar(&flagDefaultExcludes, "default-excludes", true, "apply built-in exclude list (node_modules, dist, images, etc.)")
	f.StringVar(&flagCategories, "categories", "", "only run rules in these categories (comma-separated)")
	f.StringVar(&flagDisable, "disable-categories", "", "skip rules in these categories (comma-separated)")
	f.StringVar(&flagRules, "rules", "", "extra rule pack files (comma-separated)")
	f.StringVar(&flagFailOn, "fail-on", "medium", "exit 1 on findings at or above: low|medium|high|critical|none")
	f.BoolVar(&flagNoCache, "no-cache", false, "disable the incremental scan cache")
	f.StringVar(&flagBaseline, "baseline", DefaultBaselineFile, "baseline file; findings recorded there are not reported")
	f.BoolVar(&flagAudit, "audit", false, "append a record of this scan to the audit log")
	f.BoolVar(&flagCopy, "copy", false, "copy a masked summary of the findings to the clipboard")
	f.BoolVar(&flagProgress, "progress", true, "show a progress bar when stderr is a terminal")
}

// applyScanFlags layers explicitly set flags over the configured settings.
func applyScanFlags(cmd *cobra.Command, s config.Settings) config.Settings {
	s.Budget = pick(cmd, "budget", flagBudget, s.Budget)
	s.ChunkSize = pick(cmd, "chunk-size", flagChunkSize, s.ChunkSize)
	s.UnitsPerSlice = pick(cmd, "units-per-slice", flagUnitsPerSlice, s.UnitsPerSlice)
	s.Include = pick(cmd, "include", flagInclude, s.Include)
	s.Exclude = pick(cmd, "exclude", flagExclude, s.Exclude)
	s.MaxBytes = pick(cmd, "max-bytes", flagMaxBytes, s.MaxBytes)
	s.DefaultExcludes = pick(cmd, "default-excludes", flagDefaultExcludes, s.DefaultExcludes)
	s.EnabledCategories = pickList(cmd, "categories", flagCategories, s.EnabledCategories)
	s.DisabledCategories = pickList(cmd, "disable-categories", flagDisable, s.DisabledCategories)
	s.FailOn = pick(cmd, "fail-on", flagFailOn, s.FailOn)
	s.NoColor = pick(cmd, "no-color", flagNoColor, s.NoColor)
	s.RulePacks = append(s.RulePacks, config.SplitList(flagRules)...)
	return s
}

// scanTargets maps arguments to a scan root and paths under it. A single
// directory becomes the root so its config, ignore file and cache apply.
func scanTargets(args []string) (root string, paths []string) {
	if len(args) == 1 {
		if st, err := os.Stat(args[0]); err == nil && st.IsDir() {
			return absRoot(args[0]), nil
		}
	}
	return absRoot("."), args
}

func runScan(cmd *cobra.Command, args []string) error {
	stdin := len(args) == 1 && args[0] == "-"
	root, paths := absRoot("."), []string(nil)
	if !stdin {
		root, paths = scanTargets(args)
	}

	settings, err := loadSettings(root)
	if err != nil {
		return err
	}
	settings = applyScanFlags(cmd, settings)
	sc, err := core.NewScannerContext(settings)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	machine := flagJSON || flagSARIF
	noColor := settings.NoColor || !isTerminal(os.Stdout)
	cfg := engine.Config{
		Root:            root,
		Paths:           paths,
		IncludeGlobs:    settings.Include,
		ExcludeGlobs:    settings.Exclude,
		MaxBytes:        settings.MaxBytes,
		DefaultExcludes: settings.DefaultExcludes,
		NoCache:         flagNoCache,
		Threads:         flagThreads,
	}

	var bar *progressbar.ProgressBar
	if flagProgress && !stdin && !machine && isTerminal(os.Stderr) {
		if total, _ := engine.CountTargets(cfg); total > 0 {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("scanning"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
				progressbar.OptionThrottle(65*time.Millisecond),
			)
			cfg.Progress = func() { _ = bar.Add(1) }
		}
	}

	var res engine.Result
	if stdin {
		res, err = engine.ScanReader(ctx, cmd.InOrStdin(), "stdin", settings.MaxBytes, sc)
	} else {
		log.Infof("scanning %s with %d rules", root, len(sc.Catalog().Filter(settings.EnabledCategories, settings.DisabledCategories)))
		res, err = sc.ScanFiles(ctx, cfg)
	}
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("scan error: %w", err)
	}

	baselinePath := flagBaseline
	if baselinePath != "" && !filepath.IsAbs(baselinePath) {
		baselinePath = filepath.Join(root, baselinePath)
	}
	base, err := report.LoadBaseline(baselinePath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("ignoring baseline %s: %v", baselinePath, err)
	}
	newFindings := report.FilterNewFindings(res.Findings, base)
	if newFindings == nil {
		newFindings = []types.Finding{}
	}

	out := cmd.OutOrStdout()
	opts := report.PrintOptions{
		NoColor:      noColor,
		Duration:     res.Duration,
		FilesScanned: res.FilesScanned,
		Stats:        &res.Stats,
		ShowContext:  flagShowContext,
	}
	switch {
	case flagSARIF:
		err = report.WriteSARIFWithStats(out, newFindings, res.Stats)
	case flagJSON && flagStats:
		err = report.WriteJSONReport(out, report.JSONReport{Findings: newFindings, Stats: res.Stats, FilesScanned: res.FilesScanned})
	case flagJSON:
		err = report.WriteJSON(out, newFindings)
	case flagText:
		report.PrintText(out, newFindings, opts)
	default:
		report.PrintTable(out, newFindings, opts)
	}
	if err != nil {
		return err
	}

	if flagCopy && len(newFindings) > 0 {
		if err := clipboard.WriteAll(clipboardSummary(newFindings)); err != nil {
			log.Warnf("copy to clipboard failed: %v", err)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "Copied %d findings to clipboard\n", len(newFindings))
		}
	}

	if !stdin {
		if flagAudit {
			record := audit.CreateScanRecord(audit.Summary{
				Root:          root,
				All:           res.Findings,
				New:           newFindings,
				FilesScanned:  res.FilesScanned,
				Duration:      res.Duration,
				Aborted:       res.Stats.Aborted,
				DegradedRules: degradedIDs(res),
				BaselineFile:  flagBaseline,
			})
			if err := audit.NewAuditLog(root).LogScan(record); err != nil {
				log.Warnf("audit log not written: %v", err)
			}
		}
		if !flagNoCache {
			if err := cache.SaveResults(root, res.Findings); err != nil {
				log.Warnf("last scan results not saved: %v", err)
			}
		}
	}

	if report.ShouldFail(newFindings, settings.FailOn) {
		return errFindings
	}
	return nil
}

func degradedIDs(res engine.Result) []string {
	var ids []string
	for _, d := range res.Stats.Degraded {
		ids = append(ids, d.RuleID)
	}
	return ids
}

// clipboardSummary lists findings one per line with masked values.
func clipboardSummary(findings []types.Finding) string {
	var sb strings.Builder
	for _, f := range findings {
		loc := f.Source
		if f.Line > 0 {
			loc = fmt.Sprintf("%s:%d", f.Source, f.Line)
		}
		fmt.Fprintf(&sb, "%s\t%s\t%s\t%s\n", f.RiskLevel, f.Type, loc, f.Masked())
	}
	return sb.String()
}
