package ferretwatch

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ferretwatch/ferretwatch/internal/config"
)

// pick returns the flag value when the user set it on the command line and
// the configured value otherwise.
func pick[T any](cmd *cobra.Command, name string, cli, cfg T) T {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		return cli
	}
	return cfg
}

// pickList is pick for comma-separated list flags.
func pickList(cmd *cobra.Command, name, cli string, cfg []string) []string {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		return config.SplitList(cli)
	}
	return cfg
}

// loadSettings resolves defaults, then the global config, then the config
// in root. Flags are applied on top by each command.
func loadSettings(root string) (config.Settings, error) {
	return config.FileSource{Root: root}.LoadSettings()
}

func absRoot(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
