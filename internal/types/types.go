package types

import (
	"fmt"
	"strings"
	"time"
)

// RiskLevel is the risk assigned to a rule and copied onto its findings.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskLevels lists every level from most to least severe.
var RiskLevels = []RiskLevel{RiskCritical, RiskHigh, RiskMedium, RiskLow}

// Rank orders risk levels: critical > high > medium > low. Unknown levels rank 0.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskCritical:
		return 4
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether r is one of the four known levels.
func (r RiskLevel) Valid() bool { return r.Rank() > 0 }

// ParseRiskLevel parses a level name case-insensitively.
func ParseRiskLevel(s string) (RiskLevel, error) {
	r := RiskLevel(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown risk level %q (want low|medium|high|critical)", s)
	}
	return r, nil
}

// Finding is a single validated detection. Findings are never mutated after
// the scanner appends them.
type Finding struct {
	Type      string    `json:"type"`
	RiskLevel RiskLevel `json:"risk_level"`
	Category  string    `json:"category"`
	RuleID    string    `json:"rule_id,omitempty"`
	Provider  string    `json:"provider,omitempty"` // cloud storage rules only
	Value     string    `json:"value"`
	Context   string    `json:"context,omitempty"`
	Position  int       `json:"position"`       // byte offset into the scanned content
	Line      int       `json:"line,omitempty"` // 1-based, filled in by file scans
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Key is the dedup key of a finding within one scan.
func (f Finding) Key() string { return f.Type + "|" + f.Value }

// Masked returns the value with its middle hidden.
func (f Finding) Masked() string { return MaskValue(f.Value) }

// MaskValue keeps the first and last four characters of long values.
func MaskValue(s string) string {
	r := []rune(s)
	if len(r) <= 8 {
		return "********"
	}
	return string(r[:4]) + "…" + string(r[len(r)-4:])
}
