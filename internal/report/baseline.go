package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/ferretwatch/ferretwatch/internal/types"
)

// Baseline is a set of accepted findings keyed by "source|type|hash", where
// hash is the xxhash of the value. Raw values are never written.
type Baseline struct {
	Items map[string]bool `json:"items"`
}

func LoadBaseline(path string) (Baseline, error) {
	b := Baseline{Items: map[string]bool{}}
	f, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	if err := json.Unmarshal(f, &b); err != nil {
		return Baseline{Items: map[string]bool{}}, err
	}
	if b.Items == nil {
		b.Items = map[string]bool{}
	}
	return b, nil
}

func SaveBaseline(path string, findings []types.Finding) error {
	b := Baseline{Items: map[string]bool{}}
	for _, f := range findings {
		b.Items[key(f)] = true
	}
	buf, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o600)
}

func FilterNewFindings(findings []types.Finding, base Baseline) []types.Finding {
	var out []types.Finding
	for _, f := range findings {
		if !base.Items[key(f)] {
			out = append(out, f)
		}
	}
	return out
}

func key(f types.Finding) string {
	return fmt.Sprintf("%s|%s|%016x", f.Source, f.Type, xxhash.Sum64String(f.Value))
}

// ShouldFail reports whether any finding is at or above failOn. "none" never
// fails; an unknown level falls back to medium.
func ShouldFail(findings []types.Finding, failOn string) bool {
	if failOn == "none" {
		return false
	}
	th := types.RiskLevel(failOn).Rank()
	if th == 0 {
		th = types.RiskMedium.Rank()
	}
	for _, f := range findings {
		if f.RiskLevel.Rank() >= th {
			return true
		}
	}
	return false
}
