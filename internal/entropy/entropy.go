// Package entropy scores candidate strings for randomness. The scanner's
// validator uses it to drop low-information matches from generic rules.
package entropy

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Thresholds are the cut-offs IsRandomLooking applies. The defaults are
// empirically tuned and meant to be overridden from configuration.
type Thresholds struct {
	MinEntropy float64 `yaml:"min_entropy"`
	MinVariety float64 `yaml:"min_variety"`
	MinLength  int     `yaml:"min_length"`
}

// DefaultThresholds returns entropy >= 3.5, variety >= 0.5, length >= 10.
func DefaultThresholds() Thresholds {
	return Thresholds{MinEntropy: 3.5, MinVariety: 0.5, MinLength: 10}
}

// Verdict is the result of IsRandomLooking.
type Verdict struct {
	IsRandom bool    `json:"is_random"`
	Entropy  float64 `json:"entropy"`
	Variety  float64 `json:"variety"`
	Reason   string  `json:"reason"`
}

// ReasonRandom is the Verdict reason when every criterion passes.
const ReasonRandom = "Appears random"

var reSequentialPrefix = regexp.MustCompile(`(?i)^(?:123|abc|qwe)`)

// Analyzer classifies strings against a fixed set of thresholds.
type Analyzer struct {
	th Thresholds
}

// NewAnalyzer returns an analyzer. Zero-valued threshold fields fall back to
// the defaults.
func NewAnalyzer(th Thresholds) *Analyzer {
	def := DefaultThresholds()
	if th.MinEntropy <= 0 {
		th.MinEntropy = def.MinEntropy
	}
	if th.MinVariety <= 0 {
		th.MinVariety = def.MinVariety
	}
	if th.MinLength <= 0 {
		th.MinLength = def.MinLength
	}
	return &Analyzer{th: th}
}

// Thresholds returns the analyzer's effective thresholds.
func (a *Analyzer) Thresholds() Thresholds { return a.th }

// ShannonEntropy returns -Σ p·log2(p) over the rune frequencies of s.
func ShannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := map[rune]int{}
	n := 0
	for _, r := range s {
		counts[r]++
		n++
	}
	h := 0.0
	total := float64(n)
	for _, c := range counts {
		p := float64(c) / total
		h -= p * math.Log2(p)
	}
	return h
}

// CharacterVariety returns unique runes / total runes, in [0,1].
func CharacterVariety(s string) float64 {
	if s == "" {
		return 0
	}
	seen := map[rune]struct{}{}
	n := 0
	for _, r := range s {
		seen[r] = struct{}{}
		n++
	}
	return float64(len(seen)) / float64(n)
}

// IsRandomLooking requires every threshold to pass and no obvious pattern to
// be present. Reason lists each failing criterion.
func (a *Analyzer) IsRandomLooking(s string) Verdict {
	v := Verdict{
		Entropy: ShannonEntropy(s),
		Variety: CharacterVariety(s),
	}
	var reasons []string
	if v.Entropy < a.th.MinEntropy {
		reasons = append(reasons, fmt.Sprintf("Low entropy (%.2f < %.2f).", v.Entropy, a.th.MinEntropy))
	}
	if v.Variety < a.th.MinVariety {
		reasons = append(reasons, fmt.Sprintf("Low variety (%.2f < %.2f).", v.Variety, a.th.MinVariety))
	}
	if n := utf8.RuneCountInString(s); n < a.th.MinLength {
		reasons = append(reasons, fmt.Sprintf("Too short (%d < %d).", n, a.th.MinLength))
	}
	if HasObviousPattern(s) {
		reasons = append(reasons, "Contains obvious pattern.")
	}
	if len(reasons) == 0 {
		v.IsRandom = true
		v.Reason = ReasonRandom
		return v
	}
	v.Reason = strings.Join(reasons, " ")
	return v
}

// HasObviousPattern reports repeated-character runs (4+), a digraph repeated
// three times in a row, or a sequential keyboard prefix.
func HasObviousPattern(s string) bool {
	if reSequentialPrefix.MatchString(s) {
		return true
	}
	r := []rune(s)
	return hasCharRun(r, 4) || hasRepeatedDigraph(r, 3)
}

func hasCharRun(r []rune, n int) bool {
	run := 1
	for i := 1; i < len(r); i++ {
		if r[i] == r[i-1] {
			run++
			if run >= n {
				return true
			}
			continue
		}
		run = 1
	}
	return false
}

// hasRepeatedDigraph matches "ababab" style repetition. Runs of a single
// character are left to hasCharRun.
func hasRepeatedDigraph(r []rune, reps int) bool {
	need := 2 * reps
	for i := 0; i+need <= len(r); i++ {
		a, b := r[i], r[i+1]
		if a == b {
			continue
		}
		ok := true
		for j := 2; j < need; j += 2 {
			if r[i+j] != a || r[i+j+1] != b {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}
