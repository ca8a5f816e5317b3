// Package scanner implements the progressive scan: rules are applied to
// content in small units of work, and the scan yields to the caller's
// scheduler whenever a slice's time or unit budget runs out.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ferretwatch/ferretwatch/internal/log"
	"github.com/ferretwatch/ferretwatch/internal/patterns"
	"github.com/ferretwatch/ferretwatch/internal/types"
)

const (
	DefaultBudget       = 16 * time.Millisecond
	DefaultChunkSize    = 64 << 10
	DefaultContextWidth = 60
	minChunkSize        = 64
)

// Options tune a single scan. Zero values take the defaults.
type Options struct {
	// Budget is the wall time one slice may use before yielding.
	Budget time.Duration
	// UnitsPerSlice additionally caps units per slice; 0 disables the cap.
	UnitsPerSlice int
	// ChunkSize is the content span one unit covers. Content no longer than
	// this is scanned whole; matches no longer than it are never split.
	ChunkSize int
	// ContextWidth is the number of bytes kept on each side of a value.
	ContextWidth int
	Yielder      Yielder
	// Source is copied onto every finding.
	Source string
}

func (o Options) withDefaults() Options {
	if o.Budget <= 0 {
		o.Budget = DefaultBudget
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ChunkSize < minChunkSize {
		o.ChunkSize = minChunkSize
	}
	if o.ContextWidth <= 0 {
		o.ContextWidth = DefaultContextWidth
	}
	if o.Yielder == nil {
		o.Yielder = GoschedYielder{}
	}
	return o
}

// Validator decides whether a raw match is kept.
type Validator interface {
	IsValidSecret(candidate string, rule patterns.Rule) bool
}

// ErrNilMatcher marks a rule that cannot be applied.
var ErrNilMatcher = errors.New("rule has no matcher")

// RuleError records a rule that was dropped from a scan.
type RuleError struct {
	RuleID string        `json:"rule_id"`
	Tier   patterns.Tier `json:"tier"`
	Err    error         `json:"-"`
}

func (e RuleError) Error() string { return fmt.Sprintf("rule %s: %v", e.RuleID, e.Err) }

func (e RuleError) Unwrap() error { return e.Err }

// Stats describes how a scan went. Callers use it to tell a clean negative
// from an aborted scan or a degraded rule.
type Stats struct {
	Elapsed        time.Duration `json:"elapsed"`
	Units          int           `json:"units"`
	Yields         int           `json:"yields"`
	RulesTotal     int           `json:"rules_total"`
	RulesCompleted int           `json:"rules_completed"`
	RulesPartial   int           `json:"rules_partial"`
	Matches        int           `json:"matches"`
	Rejected       int           `json:"rejected"`
	Duplicates     int           `json:"duplicates"`
	Degraded       []RuleError   `json:"degraded,omitempty"`
	Aborted        bool          `json:"aborted"`
}

// Add folds o into s. Elapsed is summed.
func (s *Stats) Add(o Stats) {
	s.Elapsed += o.Elapsed
	s.Units += o.Units
	s.Yields += o.Yields
	s.RulesTotal += o.RulesTotal
	s.RulesCompleted += o.RulesCompleted
	s.RulesPartial += o.RulesPartial
	s.Matches += o.Matches
	s.Rejected += o.Rejected
	s.Duplicates += o.Duplicates
	s.Degraded = append(s.Degraded, o.Degraded...)
	s.Aborted = s.Aborted || o.Aborted
}

// Result is what a scan resolves to.
type Result struct {
	Findings []types.Finding
	Stats    Stats
}

// Scanner runs progressive scans. It holds no per-scan state and may be used
// from many goroutines at once; each call owns its session.
type Scanner struct {
	validator Validator
	now       func() time.Time
}

type acceptAll struct{}

func (acceptAll) IsValidSecret(string, patterns.Rule) bool { return true }

// New returns a Scanner. A nil validator accepts every match.
func New(v Validator) *Scanner {
	if v == nil {
		v = acceptAll{}
	}
	return &Scanner{validator: v, now: time.Now}
}

// Scan applies rules in order to content and returns deduplicated findings
// ranked by risk. It never fails: aborts, budget exhaustion and broken rules
// are reported through Stats.
func (s *Scanner) Scan(ctx context.Context, content string, rules []patterns.Rule, opts Options) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	started := s.now()
	res := Result{Findings: []types.Finding{}}
	res.Stats.RulesTotal = len(rules)
	if content == "" || len(rules) == 0 {
		res.Stats.RulesCompleted = len(rules)
		return res
	}

	ss := newSession(ctx, s, content, rules, opts.withDefaults())
	ss.run()

	res.Findings = ss.findings
	res.Stats = ss.stats
	res.Stats.Elapsed = s.now().Sub(started)
	Rank(res.Findings)
	log.Debugf("(scanner) %d findings, %d units, %d yields, aborted=%v in %s",
		len(res.Findings), res.Stats.Units, res.Stats.Yields, res.Stats.Aborted, res.Stats.Elapsed)
	return res
}

// ScanAsync runs Scan on its own goroutine. The channel receives exactly one
// Result and is then closed.
func (s *Scanner) ScanAsync(ctx context.Context, content string, rules []patterns.Rule, opts Options) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		ch <- s.Scan(ctx, content, rules, opts)
	}()
	return ch
}

// Rank sorts findings by risk, highest first, keeping discovery order
// between equal levels.
func Rank(fs []types.Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		return fs[i].RiskLevel.Rank() > fs[j].RiskLevel.Rank()
	})
}
