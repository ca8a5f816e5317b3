package report

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"github.com/ferretwatch/ferretwatch/internal/scanner"
	"github.com/ferretwatch/ferretwatch/internal/types"
)

type PrintOptions struct {
	NoColor      bool
	Duration     time.Duration
	FilesScanned int
	// Stats adds abort and skipped-rule notes to the footer.
	Stats *scanner.Stats
	// ShowContext prints each finding's context under it (PrintText only).
	ShowContext bool
}

var (
	riskCriticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	riskHighStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	riskMediumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	riskLowStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	contextStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func riskLabel(r types.RiskLevel, noColor bool) string {
	if noColor {
		return string(r)
	}
	switch r {
	case types.RiskCritical:
		return riskCriticalStyle.Render(string(r))
	case types.RiskHigh:
		return riskHighStyle.Render(string(r))
	case types.RiskMedium:
		return riskMediumStyle.Render(string(r))
	default:
		return riskLowStyle.Render(string(r))
	}
}

// sorted returns a copy ordered by risk, then location.
func sorted(findings []types.Finding) []types.Finding {
	fs := append([]types.Finding(nil), findings...)
	sort.SliceStable(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if ra, rb := a.RiskLevel.Rank(), b.RiskLevel.Rank(); ra != rb {
			return ra > rb
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Position < b.Position
	})
	return fs
}

func location(f types.Finding) string {
	src := f.Source
	if src == "" {
		src = "-"
	}
	if f.Line > 0 {
		return fmt.Sprintf("%s:%d", src, f.Line)
	}
	return fmt.Sprintf("%s@%d", src, f.Position)
}

func PrintTable(w io.Writer, findings []types.Finding, opts PrintOptions) {
	fs := sorted(findings)
	if len(fs) == 0 {
		fmt.Fprintln(w, "No secrets found ✅")
	} else {
		table := tablewriter.NewWriter(w)
		table.Header("RISK", "TYPE", "LOCATION", "VALUE")
		for _, f := range fs {
			_ = table.Append([]string{riskLabel(f.RiskLevel, opts.NoColor), f.Type, location(f), f.Masked()})
		}
		_ = table.Render()
	}
	printFooter(w, fs, opts)
}

func PrintText(w io.Writer, findings []types.Finding, opts PrintOptions) {
	fs := sorted(findings)
	if len(fs) == 0 {
		fmt.Fprintln(w, "No secrets found ✅")
	} else {
		maxType := 8
		for _, f := range fs {
			if l := len(f.Type); l > maxType {
				maxType = l
			}
		}
		fmt.Fprintf(w, "Findings: %d\n", len(fs))
		for _, f := range fs {
			risk := fmt.Sprintf("%-8s", f.RiskLevel)
			if !opts.NoColor {
				// pad outside the escape codes so the column stays aligned
				risk = riskLabel(f.RiskLevel, false) + strings.Repeat(" ", max(0, 8-len(f.RiskLevel)))
			}
			fmt.Fprintf(w, "%s %-*s %s  %s\n", risk, maxType, f.Type, location(f), f.Masked())
			if opts.ShowContext && f.Context != "" {
				fmt.Fprintf(w, "    %s\n", renderContext(f, opts.NoColor))
			}
		}
	}
	printFooter(w, fs, opts)
}

// renderContext masks the value inside its context and, when colored,
// highlights the line for the source's language.
func renderContext(f types.Finding, noColor bool) string {
	ctx := strings.ReplaceAll(f.Context, f.Value, f.Masked())
	ctx = strings.Join(strings.Fields(ctx), " ")
	if noColor {
		return ctx
	}
	if hl, ok := highlightLine(ctx, f.Source); ok {
		return hl
	}
	return contextStyle.Render(ctx)
}

func highlightLine(line, filename string) (string, bool) {
	if filename == "" {
		return line, false
	}
	lexer := lexers.Match(filename)
	if lexer == nil {
		if ext := filepath.Ext(filename); ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer == nil {
		return line, false
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return line, false
	}
	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return line, false
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return line, false
	}
	return strings.TrimRight(buf.String(), "\n"), true
}

// CountByRisk tallies findings per risk level.
func CountByRisk(findings []types.Finding) map[types.RiskLevel]int {
	out := make(map[types.RiskLevel]int, len(types.RiskLevels))
	for _, f := range findings {
		out[f.RiskLevel]++
	}
	return out
}

func printFooter(w io.Writer, fs []types.Finding, opts PrintOptions) {
	if opts.Duration <= 0 && opts.FilesScanned <= 0 && opts.Stats == nil {
		return
	}
	c := CountByRisk(fs)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Findings: %d (critical: %d, high: %d, medium: %d, low: %d)\n", len(fs),
		c[types.RiskCritical], c[types.RiskHigh], c[types.RiskMedium], c[types.RiskLow])
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
	}
	if opts.FilesScanned > 0 {
		fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
	}
	if st := opts.Stats; st != nil {
		if st.Aborted {
			fmt.Fprintln(w, "Scan aborted: results are partial")
		}
		for _, d := range st.Degraded {
			fmt.Fprintf(w, "Rule skipped: %s (%v)\n", d.RuleID, d.Err)
		}
	}
}
