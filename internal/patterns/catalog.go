// Package patterns holds the detection rules and the catalog that orders
// them into priority tiers for the progressive scanner.
package patterns

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ferretwatch/ferretwatch/internal/types"
)

// Tier is a priority group. Tiers are scanned in TierOrder.
type Tier int

const (
	TierHigh Tier = iota
	TierMedium
	TierCloudStorage
	TierLow
)

// TierOrder is the fixed scan order.
var TierOrder = []Tier{TierHigh, TierMedium, TierCloudStorage, TierLow}

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	case TierCloudStorage:
		return "cloudStorage"
	case TierLow:
		return "low"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// ParseTier accepts the names produced by Tier.String, case-insensitively.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return TierHigh, nil
	case "medium":
		return TierMedium, nil
	case "cloudstorage", "cloud-storage", "cloud_storage":
		return TierCloudStorage, nil
	case "low":
		return TierLow, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

var (
	ErrUnknownTier   = errors.New("unknown tier")
	ErrDuplicateRule = errors.New("duplicate rule id in tier")
	ErrNilMatcher    = errors.New("rule has no matcher")
	ErrInvalidRule   = errors.New("invalid rule")
)

// Rule is one detection pattern plus the metadata copied onto its findings.
type Rule struct {
	ID        string
	Matcher   Matcher
	Type      string
	RiskLevel types.RiskLevel
	Category  string
	// Exclude, when set, rejects any candidate it matches.
	Exclude Matcher
	// Provider tags the vendor of cloud storage rules.
	Provider string
	// RequireEntropy makes the validator demand a random-looking candidate.
	RequireEntropy bool
	// Tier is assigned by the catalog.
	Tier Tier
}

func (r Rule) validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRule)
	}
	if r.Matcher == nil {
		return fmt.Errorf("%w: %s", ErrNilMatcher, r.ID)
	}
	if !r.RiskLevel.Valid() {
		return fmt.Errorf("%w: %s has risk level %q", ErrInvalidRule, r.ID, r.RiskLevel)
	}
	return nil
}

// Catalog is the tiered rule set. It is safe for concurrent use.
type Catalog struct {
	mu    sync.RWMutex
	tiers map[Tier][]Rule
	flat  []Rule
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{tiers: map[Tier][]Rule{}}
}

// NewDefaultCatalog returns a catalog loaded with the built-in rules.
func NewDefaultCatalog() *Catalog {
	c := NewCatalog()
	for _, tr := range builtinRules() {
		if err := c.Add(tr.tier, tr.rule); err != nil {
			panic(err)
		}
	}
	return c
}

// Add appends r to tier. IDs must be unique within a tier.
func (c *Catalog) Add(tier Tier, r Rule) error {
	if tier < TierHigh || tier > TierLow {
		return fmt.Errorf("%w: %d", ErrUnknownTier, int(tier))
	}
	if err := r.validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.tiers[tier] {
		if existing.ID == r.ID {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateRule, tier, r.ID)
		}
	}
	r.Tier = tier
	c.tiers[tier] = append(c.tiers[tier], r)
	c.flat = nil
	return nil
}

// Remove deletes every rule with the given id. It reports whether any was found.
func (c *Catalog) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := false
	for tier, rules := range c.tiers {
		kept := rules[:0:0]
		for _, r := range rules {
			if r.ID == id {
				removed = true
				continue
			}
			kept = append(kept, r)
		}
		c.tiers[tier] = kept
	}
	if removed {
		c.flat = nil
	}
	return removed
}

// AllInPriorityOrder flattens the tiers in TierOrder, keeping insertion order
// within a tier. The result is computed once and cached until ResetCache or a
// mutation. Callers must not modify the returned slice.
func (c *Catalog) AllInPriorityOrder() []Rule {
	c.mu.RLock()
	flat := c.flat
	c.mu.RUnlock()
	if flat != nil {
		return flat
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.flat != nil {
		return c.flat
	}
	out := []Rule{}
	for _, t := range TierOrder {
		out = append(out, c.tiers[t]...)
	}
	c.flat = out
	return out
}

// Rules implements the scanner's rule source.
func (c *Catalog) Rules() []Rule { return c.AllInPriorityOrder() }

// ByCategory returns the rules of one category in priority order.
func (c *Catalog) ByCategory(category string) []Rule {
	var out []Rule
	for _, r := range c.AllInPriorityOrder() {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

// ByTier returns a copy of one tier's rules.
func (c *Catalog) ByTier(t Tier) []Rule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Rule(nil), c.tiers[t]...)
}

// Filter returns rules in priority order whose category is enabled and not
// disabled. An empty enabled list enables every category.
func (c *Catalog) Filter(enabled, disabled []string) []Rule {
	en := toSet(enabled)
	dis := toSet(disabled)
	var out []Rule
	for _, r := range c.AllInPriorityOrder() {
		if len(en) > 0 && !en[r.Category] {
			continue
		}
		if dis[r.Category] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Categories returns the distinct categories, sorted.
func (c *Catalog) Categories() []string {
	set := map[string]bool{}
	for _, r := range c.AllInPriorityOrder() {
		set[r.Category] = true
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of rules across all tiers.
func (c *Catalog) Len() int { return len(c.AllInPriorityOrder()) }

// ResetCache drops the flattened rule list.
func (c *Catalog) ResetCache() {
	c.mu.Lock()
	c.flat = nil
	c.mu.Unlock()
}

func toSet(ss []string) map[string]bool {
	m := map[string]bool{}
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			m[s] = true
		}
	}
	return m
}
