package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ferretwatch/ferretwatch/internal/config"
	"github.com/ferretwatch/ferretwatch/internal/engine"
	"github.com/ferretwatch/ferretwatch/internal/log"
	"github.com/ferretwatch/ferretwatch/internal/patterns"
	"github.com/ferretwatch/ferretwatch/internal/scanner"
	"github.com/ferretwatch/ferretwatch/internal/types"
	"github.com/ferretwatch/ferretwatch/internal/validate"
)

// Version is the engine version. Rule packs declaring a newer
// min_engine_version are refused.
const Version = "0.1.0"

// Re-export selected internal types as a stable public API surface.
type (
	Finding        = types.Finding
	RiskLevel      = types.RiskLevel
	Rule           = patterns.Rule
	Catalog        = patterns.Catalog
	Stats          = scanner.Stats
	RuleError      = scanner.RuleError
	Yielder        = scanner.Yielder
	YieldFunc      = scanner.YieldFunc
	Settings       = config.Settings
	SettingsSource = config.SettingsSource
	FileConfig     = engine.Config
	FileResult     = engine.Result
)

const (
	RiskLow      = types.RiskLow
	RiskMedium   = types.RiskMedium
	RiskHigh     = types.RiskHigh
	RiskCritical = types.RiskCritical
)

// DefaultSettings returns the built-in configuration.
func DefaultSettings() Settings { return config.DefaultSettings() }

// PatternSource supplies rules in priority order. *Catalog satisfies it.
type PatternSource interface {
	Rules() []Rule
}

// ScanOptions override Settings for a single scan. Zero values keep the
// configured value.
type ScanOptions struct {
	BudgetMs      int
	ChunkSize     int
	UnitsPerSlice int
	Yielder       Yielder
	// Source is copied onto every finding.
	Source string
}

// Option configures a ScannerContext.
type Option func(*ScannerContext)

// WithCatalog replaces the built-in catalog.
func WithCatalog(c *Catalog) Option {
	return func(sc *ScannerContext) { sc.catalog = c }
}

// WithYielder sets the yielder used when ScanOptions does not name one.
func WithYielder(y Yielder) Option {
	return func(sc *ScannerContext) { sc.yielder = y }
}

// ScannerContext owns the catalog, the validator and its verdict cache, and
// the settings. Build one per process and share it; it is safe for
// concurrent use.
type ScannerContext struct {
	catalog *Catalog
	source  SettingsSource
	yielder Yielder

	mu        sync.Mutex
	settings  Settings
	vopts     validate.Options
	validator *validate.Validator
	scanner   *scanner.Scanner
}

// NewScannerContext builds a context from fixed settings.
func NewScannerContext(settings Settings, opts ...Option) (*ScannerContext, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return newScannerContext(settings, nil, opts)
}

// NewScannerContextFromSource builds a context whose settings are re-read
// from src at the start of every scan.
func NewScannerContextFromSource(src SettingsSource, opts ...Option) (*ScannerContext, error) {
	settings, err := src.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return newScannerContext(settings, src, opts)
}

func newScannerContext(settings Settings, src SettingsSource, opts []Option) (*ScannerContext, error) {
	sc := &ScannerContext{source: src}
	for _, o := range opts {
		o(sc)
	}
	if sc.catalog == nil {
		sc.catalog = patterns.NewDefaultCatalog()
	}
	for _, path := range settings.RulePacks {
		pack, err := patterns.LoadPack(path)
		if err != nil {
			return nil, err
		}
		if err := sc.catalog.ApplyPack(pack, Version); err != nil {
			return nil, err
		}
		log.Infof("(core) loaded rule pack %s (%d rules)", pack.Name, len(pack.Rules))
	}
	sc.apply(settings)
	return sc, nil
}

// apply installs settings, rebuilding the validator only when its options
// changed so the verdict cache survives unrelated edits. Callers hold mu or
// own sc exclusively.
func (sc *ScannerContext) apply(settings Settings) {
	sc.settings = settings
	vo := settings.ValidatorOptions()
	if sc.validator == nil || vo != sc.vopts {
		sc.vopts = vo
		sc.validator = validate.New(vo)
		sc.scanner = scanner.New(sc.validator)
	}
}

// current re-reads the settings source, keeping the previous settings if it
// fails.
func (sc *ScannerContext) current() (Settings, *scanner.Scanner) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.source != nil {
		settings, err := sc.source.LoadSettings()
		if err != nil {
			log.Warnf("(core) keeping previous settings: %v", err)
		} else {
			sc.apply(settings)
		}
	}
	return sc.settings, sc.scanner
}

// ProgressiveScan scans content with rules in order and returns findings
// ranked by risk. A nil rules slice means every catalog rule in an enabled
// category. It never fails: Stats reports aborts and skipped rules.
func (sc *ScannerContext) ProgressiveScan(ctx context.Context, content string, rules []Rule, opts ScanOptions) ([]Finding, Stats) {
	settings, s := sc.current()
	if rules == nil {
		rules = sc.catalog.Filter(settings.EnabledCategories, settings.DisabledCategories)
	}
	so := settings.ScanOptions()
	if opts.BudgetMs > 0 {
		so.Budget = time.Duration(opts.BudgetMs) * time.Millisecond
	}
	if opts.ChunkSize > 0 {
		so.ChunkSize = opts.ChunkSize
	}
	if opts.UnitsPerSlice > 0 {
		so.UnitsPerSlice = opts.UnitsPerSlice
	}
	so.Yielder = sc.yielder
	if opts.Yielder != nil {
		so.Yielder = opts.Yielder
	}
	so.Source = opts.Source
	res := s.Scan(ctx, content, rules, so)
	return res.Findings, res.Stats
}

// ScanContent scans one document with the enabled rules.
func (sc *ScannerContext) ScanContent(ctx context.Context, source, content string) ([]Finding, Stats) {
	return sc.ProgressiveScan(ctx, content, nil, ScanOptions{Source: source})
}

// ScanFiles scans a directory tree.
func (sc *ScannerContext) ScanFiles(ctx context.Context, cfg FileConfig) (FileResult, error) {
	return engine.Run(ctx, cfg, sc)
}

// Catalog returns the rule catalog. Rules added to it apply to later scans.
func (sc *ScannerContext) Catalog() *Catalog { return sc.catalog }

// Settings returns the settings of the most recent scan.
func (sc *ScannerContext) Settings() Settings {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.settings
}

// CacheStats reports verdict cache activity.
func (sc *ScannerContext) CacheStats() validate.Stats {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.validator.Stats()
}
