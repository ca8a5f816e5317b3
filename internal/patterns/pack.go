package patterns

import (
	"errors"
	"fmt"
	"os"
	"strings"

	semver "github.com/blang/semver/v4"
	"gopkg.in/yaml.v3"

	"github.com/ferretwatch/ferretwatch/internal/types"
)

// ErrIncompatiblePack is returned when a rule pack needs a newer engine.
var ErrIncompatiblePack = errors.New("rule pack requires a newer engine")

// Pack is the on-disk YAML shape of a custom rule pack.
type Pack struct {
	Name             string     `yaml:"name"`
	MinEngineVersion string     `yaml:"min_engine_version"`
	Rules            []PackRule `yaml:"rules"`
}

// PackRule is one rule entry in a Pack.
type PackRule struct {
	ID             string `yaml:"id"`
	Tier           string `yaml:"tier"`
	Pattern        string `yaml:"pattern"`
	Type           string `yaml:"type"`
	Risk           string `yaml:"risk"`
	Category       string `yaml:"category"`
	Exclude        string `yaml:"exclude"`
	Provider       string `yaml:"provider"`
	RequireEntropy bool   `yaml:"require_entropy"`
}

// LoadPack reads and parses a rule pack file.
func LoadPack(path string) (Pack, error) {
	var p Pack
	b, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("parse rule pack %s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = path
	}
	return p, nil
}

// CheckCompatible compares the pack's min_engine_version with engineVersion.
// Packs without a minimum are always compatible.
func (p Pack) CheckCompatible(engineVersion string) error {
	if strings.TrimSpace(p.MinEngineVersion) == "" {
		return nil
	}
	need, err := semver.ParseTolerant(p.MinEngineVersion)
	if err != nil {
		return fmt.Errorf("rule pack %s: bad min_engine_version: %w", p.Name, err)
	}
	have, err := semver.ParseTolerant(engineVersion)
	if err != nil {
		return fmt.Errorf("bad engine version %q: %w", engineVersion, err)
	}
	if have.LT(need) {
		return fmt.Errorf("%w: %s needs %s, running %s", ErrIncompatiblePack, p.Name, need, have)
	}
	return nil
}

// Compile turns a pack entry into a Rule and its tier.
func (pr PackRule) Compile() (Tier, Rule, error) {
	tier := TierLow
	if pr.Tier != "" {
		t, err := ParseTier(pr.Tier)
		if err != nil {
			return 0, Rule{}, fmt.Errorf("rule %s: %w", pr.ID, err)
		}
		tier = t
	}
	risk, err := types.ParseRiskLevel(pr.Risk)
	if err != nil {
		return 0, Rule{}, fmt.Errorf("rule %s: %w", pr.ID, err)
	}
	m, err := NewRegexMatcher(pr.Pattern)
	if err != nil {
		return 0, Rule{}, fmt.Errorf("rule %s: %w", pr.ID, err)
	}
	r := Rule{
		ID:             pr.ID,
		Matcher:        m,
		Type:           pr.Type,
		RiskLevel:      risk,
		Category:       pr.Category,
		Provider:       pr.Provider,
		RequireEntropy: pr.RequireEntropy,
	}
	if r.Type == "" {
		r.Type = pr.ID
	}
	if r.Category == "" {
		r.Category = "custom"
	}
	if pr.Exclude != "" {
		ex, err := NewRegexMatcher(pr.Exclude)
		if err != nil {
			return 0, Rule{}, fmt.Errorf("rule %s exclude: %w", pr.ID, err)
		}
		r.Exclude = ex
	}
	return tier, r, nil
}

// ApplyPack checks compatibility, compiles every rule and adds them all. No
// rule is added unless the whole pack compiles.
func (c *Catalog) ApplyPack(p Pack, engineVersion string) error {
	if err := p.CheckCompatible(engineVersion); err != nil {
		return err
	}
	type compiled struct {
		tier Tier
		rule Rule
	}
	var rules []compiled
	var errs []error
	for _, pr := range p.Rules {
		t, r, err := pr.Compile()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rules = append(rules, compiled{t, r})
	}
	if len(errs) > 0 {
		return fmt.Errorf("rule pack %s: %w", p.Name, errors.Join(errs...))
	}
	for _, cr := range rules {
		if err := c.Add(cr.tier, cr.rule); err != nil {
			return fmt.Errorf("rule pack %s: %w", p.Name, err)
		}
	}
	return nil
}
