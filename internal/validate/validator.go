package validate

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/ferretwatch/ferretwatch/internal/entropy"
	"github.com/ferretwatch/ferretwatch/internal/log"
	"github.com/ferretwatch/ferretwatch/internal/patterns"
)

// Options configures a Validator. Zero values fall back to DefaultOptions.
type Options struct {
	MinLength  int
	CacheTTL   time.Duration
	CacheSize  uint64
	Thresholds entropy.Thresholds
}

// DefaultOptions returns min length 8, a 5 minute TTL and 1000 cached verdicts.
func DefaultOptions() Options {
	return Options{
		MinLength:  8,
		CacheTTL:   5 * time.Minute,
		CacheSize:  1000,
		Thresholds: entropy.DefaultThresholds(),
	}
}

// Stats counts verdict cache activity.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Entries int    `json:"entries"`
}

// Validator decides whether a raw match is a plausible secret. Verdicts are
// memoised per (candidate, category, rule filters) and evicted least recently
// used first once the cache is full; the cache is the only state shared
// between concurrent scans and is safe for concurrent use.
type Validator struct {
	minLength int
	analyzer  *entropy.Analyzer
	cache     *ttlcache.Cache[string, bool]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New returns a Validator.
func New(opts Options) *Validator {
	def := DefaultOptions()
	if opts.MinLength <= 0 {
		opts.MinLength = def.MinLength
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = def.CacheTTL
	}
	if opts.CacheSize == 0 {
		opts.CacheSize = def.CacheSize
	}
	// hits never extend an entry's lifetime past its first TTL
	cache := ttlcache.New[string, bool](
		ttlcache.WithTTL[string, bool](opts.CacheTTL),
		ttlcache.WithCapacity[string, bool](opts.CacheSize),
		ttlcache.WithDisableTouchOnHit[string, bool](),
	)
	return &Validator{
		minLength: opts.MinLength,
		analyzer:  entropy.NewAnalyzer(opts.Thresholds),
		cache:     cache,
	}
}

// IsValidSecret runs the rejection pipeline for candidate. It never panics;
// anything unexpected yields false.
func (v *Validator) IsValidSecret(candidate string, rule patterns.Rule) (ok bool) {
	if candidate == "" {
		return false
	}
	key := verdictKey(candidate, rule)
	if item := v.cache.Get(key); item != nil {
		v.hits.Add(1)
		return item.Value()
	}
	v.misses.Add(1)

	defer func() {
		if r := recover(); r != nil {
			log.Warnf("(validate) rule %s: recovered from panic: %v", rule.ID, r)
			ok = false
		}
	}()
	ok = v.check(candidate, rule)
	v.cache.Set(key, ok, ttlcache.DefaultTTL)
	return ok
}

// verdictKey scopes a verdict to the candidate's category and to the rule
// fields the pipeline reads, so rules of one category share verdicts only
// when they would reach the same one.
func verdictKey(candidate string, rule patterns.Rule) string {
	var b strings.Builder
	b.WriteString(rule.Category)
	b.WriteByte(0)
	if rule.Exclude != nil {
		b.WriteString(rule.Exclude.String())
	}
	b.WriteByte(0)
	if rule.RequireEntropy {
		b.WriteByte('e')
	}
	b.WriteByte(0)
	b.WriteString(candidate)
	return b.String()
}

func (v *Validator) check(candidate string, rule patterns.Rule) bool {
	if len(candidate) < v.minLength {
		return false
	}
	if IsGenericFalsePositive(candidate) {
		log.Debugf("(validate) %s: placeholder-like candidate rejected", rule.ID)
		return false
	}
	if rule.Exclude != nil && rule.Exclude.MatchString(candidate) {
		return false
	}
	if !checkCategory(candidate, rule.Category) {
		return false
	}
	if rule.RequireEntropy {
		verdict := v.analyzer.IsRandomLooking(candidate)
		if !verdict.IsRandom {
			log.Debugf("(validate) %s: %s", rule.ID, verdict.Reason)
			return false
		}
	}
	return true
}

func checkCategory(candidate, category string) bool {
	switch category {
	case "aws":
		if strings.HasPrefix(candidate, "AKIA") || strings.HasPrefix(candidate, "ASIA") {
			return LooksLikeAWSAccessKey(candidate)
		}
		if len(candidate) == 40 {
			return LooksLikeAWSSecretKey(candidate)
		}
		return true
	case "github":
		return LooksLikeGitHubToken(candidate)
	case "database":
		return HasDatabaseCredentials(candidate)
	case "jwt":
		return IsJWTStructure(candidate)
	default:
		return true
	}
}

// Analyzer exposes the entropy analyzer used for RequireEntropy rules.
func (v *Validator) Analyzer() *entropy.Analyzer { return v.analyzer }

// Stats returns cache counters.
func (v *Validator) Stats() Stats {
	return Stats{Hits: v.hits.Load(), Misses: v.misses.Load(), Entries: v.cache.Len()}
}

// Reset drops every cached verdict.
func (v *Validator) Reset() { v.cache.DeleteAll() }
