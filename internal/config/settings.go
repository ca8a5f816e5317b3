package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ferretwatch/ferretwatch/internal/entropy"
	"github.com/ferretwatch/ferretwatch/internal/scanner"
	"github.com/ferretwatch/ferretwatch/internal/types"
	"github.com/ferretwatch/ferretwatch/internal/validate"
)

// Settings is the resolved, typed configuration.
type Settings struct {
	EntropyThreshold float64 `yaml:"entropy_threshold" json:"entropy_threshold"`
	VarietyThreshold float64 `yaml:"variety_threshold" json:"variety_threshold"`
	MinRandomLength  int     `yaml:"min_random_length" json:"min_random_length"`
	MinSecretLength  int     `yaml:"min_secret_length" json:"min_secret_length"`

	EnabledCategories  []string `yaml:"enabled_categories,omitempty" json:"enabled_categories,omitempty"`
	DisabledCategories []string `yaml:"disabled_categories,omitempty" json:"disabled_categories,omitempty"`

	Budget        time.Duration `yaml:"budget" json:"budget"`
	UnitsPerSlice int           `yaml:"units_per_slice" json:"units_per_slice"`
	ChunkSize     int           `yaml:"chunk_size" json:"chunk_size"`
	ContextWidth  int           `yaml:"context_width" json:"context_width"`

	CacheTTL  time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
	CacheSize int           `yaml:"cache_size" json:"cache_size"`

	RulePacks []string `yaml:"rule_packs,omitempty" json:"rule_packs,omitempty"`

	Include         string `yaml:"include,omitempty" json:"include,omitempty"`
	Exclude         string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	MaxBytes        int64  `yaml:"max_bytes" json:"max_bytes"`
	DefaultExcludes bool   `yaml:"default_excludes" json:"default_excludes"`
	FailOn          string `yaml:"fail_on" json:"fail_on"`
	NoColor         bool   `yaml:"no_color" json:"no_color"`
}

// DefaultSettings returns the built-in configuration.
func DefaultSettings() Settings {
	th := entropy.DefaultThresholds()
	vo := validate.DefaultOptions()
	return Settings{
		EntropyThreshold: th.MinEntropy,
		VarietyThreshold: th.MinVariety,
		MinRandomLength:  th.MinLength,
		MinSecretLength:  vo.MinLength,
		Budget:           scanner.DefaultBudget,
		ChunkSize:        scanner.DefaultChunkSize,
		ContextWidth:     scanner.DefaultContextWidth,
		CacheTTL:         vo.CacheTTL,
		CacheSize:        int(vo.CacheSize),
		MaxBytes:         1 << 20,
		DefaultExcludes:  true,
		FailOn:           "medium",
	}
}

// Merge returns s with every field set in fc applied on top. Unparseable
// durations are collected into the returned error; the remaining fields are
// still applied.
func (s Settings) Merge(fc FileConfig) (Settings, error) {
	var errs []error
	if fc.EntropyThreshold != nil {
		s.EntropyThreshold = *fc.EntropyThreshold
	}
	if fc.VarietyThreshold != nil {
		s.VarietyThreshold = *fc.VarietyThreshold
	}
	if fc.MinRandomLength != nil {
		s.MinRandomLength = *fc.MinRandomLength
	}
	if fc.MinSecretLength != nil {
		s.MinSecretLength = *fc.MinSecretLength
	}
	if fc.EnabledCategories != nil {
		s.EnabledCategories = SplitList(*fc.EnabledCategories)
	}
	if fc.DisabledCategories != nil {
		s.DisabledCategories = SplitList(*fc.DisabledCategories)
	}
	if fc.Budget != nil {
		d, err := time.ParseDuration(*fc.Budget)
		if err != nil {
			errs = append(errs, fmt.Errorf("budget: %w", err))
		} else {
			s.Budget = d
		}
	}
	if fc.UnitsPerSlice != nil {
		s.UnitsPerSlice = *fc.UnitsPerSlice
	}
	if fc.ChunkSize != nil {
		s.ChunkSize = *fc.ChunkSize
	}
	if fc.ContextWidth != nil {
		s.ContextWidth = *fc.ContextWidth
	}
	if fc.CacheTTL != nil {
		d, err := time.ParseDuration(*fc.CacheTTL)
		if err != nil {
			errs = append(errs, fmt.Errorf("cache_ttl: %w", err))
		} else {
			s.CacheTTL = d
		}
	}
	if fc.CacheSize != nil {
		s.CacheSize = *fc.CacheSize
	}
	if len(fc.RulePacks) > 0 {
		s.RulePacks = append([]string(nil), fc.RulePacks...)
	}
	if fc.Include != nil {
		s.Include = *fc.Include
	}
	if fc.Exclude != nil {
		s.Exclude = *fc.Exclude
	}
	if fc.MaxBytes != nil {
		s.MaxBytes = *fc.MaxBytes
	}
	if fc.DefaultExcludes != nil {
		s.DefaultExcludes = *fc.DefaultExcludes
	}
	if fc.FailOn != nil {
		s.FailOn = *fc.FailOn
	}
	if fc.NoColor != nil {
		s.NoColor = *fc.NoColor
	}
	return s, errors.Join(errs...)
}

// Validate reports every invalid field at once. Zero is rejected wherever the
// scanner would otherwise substitute its default.
func (s Settings) Validate() error {
	var errs []error
	if s.EntropyThreshold <= 0 {
		errs = append(errs, fmt.Errorf("entropy_threshold must be positive, got %v", s.EntropyThreshold))
	}
	if s.VarietyThreshold <= 0 || s.VarietyThreshold > 1 {
		errs = append(errs, fmt.Errorf("variety_threshold must be within (0,1], got %v", s.VarietyThreshold))
	}
	if s.MinRandomLength < 1 {
		errs = append(errs, fmt.Errorf("min_random_length must be >= 1, got %d", s.MinRandomLength))
	}
	if s.MinSecretLength < 1 {
		errs = append(errs, fmt.Errorf("min_secret_length must be >= 1, got %d", s.MinSecretLength))
	}
	if s.Budget <= 0 {
		errs = append(errs, fmt.Errorf("budget must be positive, got %s", s.Budget))
	}
	if s.UnitsPerSlice < 0 {
		errs = append(errs, fmt.Errorf("units_per_slice must be >= 0, got %d", s.UnitsPerSlice))
	}
	if s.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk_size must be positive, got %d", s.ChunkSize))
	}
	if s.ContextWidth < 1 {
		errs = append(errs, fmt.Errorf("context_width must be >= 1, got %d", s.ContextWidth))
	}
	if s.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache_ttl must be positive, got %s", s.CacheTTL))
	}
	if s.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("cache_size must be positive, got %d", s.CacheSize))
	}
	if s.MaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_bytes must be positive, got %d", s.MaxBytes))
	}
	if s.FailOn != "none" {
		if _, err := types.ParseRiskLevel(s.FailOn); err != nil {
			errs = append(errs, fmt.Errorf("fail_on: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Thresholds returns the entropy thresholds.
func (s Settings) Thresholds() entropy.Thresholds {
	return entropy.Thresholds{
		MinEntropy: s.EntropyThreshold,
		MinVariety: s.VarietyThreshold,
		MinLength:  s.MinRandomLength,
	}
}

// ValidatorOptions returns the options for a verdict-caching validator.
func (s Settings) ValidatorOptions() validate.Options {
	return validate.Options{
		MinLength:  s.MinSecretLength,
		CacheTTL:   s.CacheTTL,
		CacheSize:  uint64(max(s.CacheSize, 0)),
		Thresholds: s.Thresholds(),
	}
}

// ScanOptions returns the per-scan options.
func (s Settings) ScanOptions() scanner.Options {
	return scanner.Options{
		Budget:        s.Budget,
		UnitsPerSlice: s.UnitsPerSlice,
		ChunkSize:     s.ChunkSize,
		ContextWidth:  s.ContextWidth,
	}
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FileConfig returns s in the on-disk shape with every field set, so that
// merging it onto any Settings reproduces s.
func (s Settings) FileConfig() FileConfig {
	budget := s.Budget.String()
	ttl := s.CacheTTL.String()
	enabled := strings.Join(s.EnabledCategories, ",")
	disabled := strings.Join(s.DisabledCategories, ",")
	return FileConfig{
		EntropyThreshold:   &s.EntropyThreshold,
		VarietyThreshold:   &s.VarietyThreshold,
		MinRandomLength:    &s.MinRandomLength,
		MinSecretLength:    &s.MinSecretLength,
		EnabledCategories:  &enabled,
		DisabledCategories: &disabled,
		Budget:             &budget,
		UnitsPerSlice:      &s.UnitsPerSlice,
		ChunkSize:          &s.ChunkSize,
		ContextWidth:       &s.ContextWidth,
		CacheTTL:           &ttl,
		CacheSize:          &s.CacheSize,
		RulePacks:          append([]string(nil), s.RulePacks...),
		Include:            &s.Include,
		Exclude:            &s.Exclude,
		MaxBytes:           &s.MaxBytes,
		DefaultExcludes:    &s.DefaultExcludes,
		FailOn:             &s.FailOn,
		NoColor:            &s.NoColor,
	}
}
