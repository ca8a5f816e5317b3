package report

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/ferretwatch/ferretwatch/internal/types"
)

// ToolVersion is reported as the SARIF driver version.
var ToolVersion = "dev"

type sarif struct {
	Schema  string     `json:"$schema,omitempty"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string         `json:"id"`
	Name             string         `json:"name,omitempty"`
	ShortDescription sarifMessage   `json:"shortDescription"`
	Properties       map[string]any `json:"properties,omitempty"`
}

type sarifResult struct {
	RuleID    string       `json:"ruleId"`
	RuleIndex int          `json:"ruleIndex"`
	Level     string       `json:"level"`
	Message   sarifMessage `json:"message"`
	Locations []sarifLoc   `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine  int          `json:"startLine,omitempty"`
	CharOffset int          `json:"charOffset"`
	Snippet    sarifMessage `json:"snippet"`
}

func riskToLevel(r types.RiskLevel) string {
	switch r {
	case types.RiskCritical, types.RiskHigh:
		return "error"
	case types.RiskMedium:
		return "warning"
	default:
		return "note"
	}
}

func ruleID(f types.Finding) string {
	if f.RuleID != "" {
		return f.RuleID
	}
	return f.Type
}

// WriteSARIF writes findings as SARIF 2.1.0 to the provided writer.
func WriteSARIF(w io.Writer, findings []types.Finding) error {
	return WriteSARIFWithStats(w, findings, nil)
}

// WriteSARIFWithStats also attaches scan statistics as run properties.
func WriteSARIFWithStats(w io.Writer, findings []types.Finding, stats any) error {
	index := map[string]int{}
	var rules []sarifRule
	ids := make([]string, 0)
	byID := map[string]types.Finding{}
	for _, f := range findings {
		id := ruleID(f)
		if _, ok := byID[id]; !ok {
			byID[id] = f
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for i, id := range ids {
		f := byID[id]
		index[id] = i
		rules = append(rules, sarifRule{
			ID:               id,
			Name:             f.Type,
			ShortDescription: sarifMessage{Text: f.Type},
			Properties:       map[string]any{"category": f.Category, "risk": string(f.RiskLevel)},
		})
	}

	run := sarifRun{
		Tool:    sarifTool{Driver: sarifDriver{Name: "ferretwatch", Version: ToolVersion, Rules: rules}},
		Results: []sarifResult{},
	}
	for _, f := range findings {
		id := ruleID(f)
		run.Results = append(run.Results, sarifResult{
			RuleID:    id,
			RuleIndex: index[id],
			Level:     riskToLevel(f.RiskLevel),
			Message:   sarifMessage{Text: f.Type + " detected"},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{
					ArtifactLocation: sarifArt{URI: f.Source},
					Region: sarifRegion{
						StartLine:  f.Line,
						CharOffset: f.Position,
						Snippet:    sarifMessage{Text: f.Masked()},
					},
				},
			}},
		})
	}
	if stats != nil {
		run.Properties = map[string]any{"scanStats": stats}
	}
	doc := sarif{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
