package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/ferretwatch/ferretwatch/internal/types"
)

// ScanResults stores the findings and metadata from a scan. Values are
// masked before they are written.
type ScanResults struct {
	Findings  []types.Finding `json:"findings"`
	Timestamp time.Time       `json:"timestamp"`
	Root      string          `json:"root"`
	Count     int             `json:"count"`
}

func resultsPath(root string) string {
	dir, prefix := stateDir(root)
	return filepath.Join(dir, prefix+"ferretwatch_last_scan.json")
}

// SaveResults saves scan results to cache
func SaveResults(root string, findings []types.Finding) error {
	masked := make([]types.Finding, len(findings))
	for i, f := range findings {
		masked[i] = f
		masked[i].Value = f.Masked()
		masked[i].Context = ""
	}
	results := ScanResults{
		Findings:  masked,
		Timestamp: time.Now(),
		Root:      root,
		Count:     len(findings),
	}
	b, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(resultsPath(root), b, 0o600)
}

// LoadResults loads the last scan results from cache
func LoadResults(root string) (ScanResults, error) {
	var results ScanResults
	f, err := os.ReadFile(resultsPath(root))
	if err != nil {
		return results, err
	}
	if err := json.Unmarshal(f, &results); err != nil {
		return results, err
	}
	return results, nil
}
