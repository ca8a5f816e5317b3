package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape for FerretWatch. Nil
// fields were not set and leave the lower-precedence value in place.
type FileConfig struct {
	// Entropy analysis
	EntropyThreshold *float64 `yaml:"entropy_threshold"`
	VarietyThreshold *float64 `yaml:"variety_threshold"`
	MinRandomLength  *int     `yaml:"min_random_length"`
	MinSecretLength  *int     `yaml:"min_secret_length"`

	// Comma-separated category lists
	EnabledCategories  *string `yaml:"enabled_categories"`
	DisabledCategories *string `yaml:"disabled_categories"`

	// Progressive scanning
	Budget        *string `yaml:"budget"`
	UnitsPerSlice *int    `yaml:"units_per_slice"`
	ChunkSize     *int    `yaml:"chunk_size"`
	ContextWidth  *int    `yaml:"context_width"`

	// Validator verdict cache
	CacheTTL  *string `yaml:"cache_ttl"`
	CacheSize *int    `yaml:"cache_size"`

	RulePacks []string `yaml:"rule_packs"`

	// File scans
	Include         *string `yaml:"include"`
	Exclude         *string `yaml:"exclude"`
	MaxBytes        *int64  `yaml:"max_bytes"`
	DefaultExcludes *bool   `yaml:"default_excludes"`
	FailOn          *string `yaml:"fail_on"`
	NoColor         *bool   `yaml:"no_color"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LocalNames are the repo-local config file names, in search order.
var LocalNames = []string{".ferretwatch.yml", ".ferretwatch.yaml", "ferretwatch.yml", "ferretwatch.yaml"}

// ErrNoConfig is returned when no config file exists at the searched paths.
var ErrNoConfig = errors.New("no config file")

// LoadLocal searches for a repo-local config file in the given root.
func LoadLocal(repoRoot string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range LocalNames {
		p := filepath.Join(repoRoot, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, ErrNoConfig
}

// GlobalPath returns the global config path under XDG_CONFIG_HOME or
// ~/.config, or "" when neither can be determined.
func GlobalPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return ""
	}
	return filepath.Join(base, "ferretwatch", "config.yml")
}

// LoadGlobal loads the global config file.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	p := GlobalPath()
	if p == "" {
		return cfg, ErrNoConfig
	}
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, ErrNoConfig
}
