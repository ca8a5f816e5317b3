package ferretwatch

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ferretwatch/ferretwatch/internal/log"
)

var (
	flagNoColor  bool
	flagLogLevel string
	flagThreads  int
)

// errFindings marks a scan that found secrets at or above the fail-on level.
var errFindings = errors.New("findings at or above the fail-on level")

// rootCmd is the base Cobra command for the FerretWatch CLI.
var rootCmd = &cobra.Command{
	Use:           "ferretwatch",
	Short:         "Find secrets in text, files and repositories",
	Long:          "FerretWatch scans content against a tiered catalog of secret patterns, validates every match and reports findings ranked by risk.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level, err := log.ParseLevel(flagLogLevel)
		if err != nil {
			return err
		}
		log.SetLogger(log.NewConsoleLogger(cmd.ErrOrStderr(), level, flagNoColor || !isTerminal(os.Stderr)))
		return nil
	},
}

// Execute runs the FerretWatch CLI. It exits 1 when findings reach the
// fail-on level and 2 on any other error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errFindings) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level: debug|info|warn|error|silent")
	rootCmd.PersistentFlags().IntVar(&flagThreads, "threads", 0, "worker count (0 = GOMAXPROCS)")
}
