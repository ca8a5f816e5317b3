package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/ferretwatch/ferretwatch/internal/scanner"
)

func TestWriteSARIFWithStats_IncludesProperties(t *testing.T) {
	stats := scanner.Stats{Units: 12, Yields: 3, Aborted: true}
	var buf bytes.Buffer
	if err := WriteSARIFWithStats(&buf, sampleFindings(), stats); err != nil {
		t.Fatalf("WriteSARIFWithStats: %v", err)
	}
	var doc struct {
		Runs []struct {
			Properties map[string]any `json:"properties"`
			Tool       struct {
				Driver struct {
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID    string `json:"ruleId"`
				RuleIndex int    `json:"ruleIndex"`
				Level     string `json:"level"`
			} `json:"results"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v; body=%s", err, buf.String())
	}
	if len(doc.Runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(doc.Runs))
	}
	props := doc.Runs[0].Properties
	ss, ok := props["scanStats"].(map[string]any)
	if !ok {
		t.Fatalf("expected scanStats in properties, got: %#v", props)
	}
	if ss["units"].(float64) != 12 || ss["aborted"] != true {
		t.Fatalf("unexpected scanStats values: %#v", ss)
	}
	run := doc.Runs[0]
	if len(run.Tool.Driver.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(run.Tool.Driver.Rules))
	}
	for _, r := range run.Results {
		if run.Tool.Driver.Rules[r.RuleIndex].ID != r.RuleID {
			t.Fatalf("ruleIndex %d does not point at %s", r.RuleIndex, r.RuleID)
		}
	}
	if run.Results[1].Level != "error" || run.Results[0].Level != "warning" {
		t.Fatalf("unexpected levels: %+v", run.Results)
	}
}

// Validate core SARIF structure
func TestWriteSARIF_Golden(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSARIF(&buf, sampleFindings()); err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc["version"] != "2.1.0" {
		t.Fatalf("expected SARIF 2.1.0, got %v", doc["version"])
	}
	runs, ok := doc["runs"].([]any)
	if !ok || len(runs) != 1 {
		t.Fatalf("expected 1 run")
	}
	run := runs[0].(map[string]any)
	if _, ok := run["properties"]; ok {
		t.Fatalf("no properties expected without stats")
	}
	results := run["results"].([]any)
	res := results[0].(map[string]any)
	locs := res["locations"].([]any)
	phys := locs[0].(map[string]any)["physicalLocation"].(map[string]any)
	region := phys["region"].(map[string]any)
	snippet, ok := region["snippet"].(map[string]any)
	if !ok {
		t.Fatalf("expected snippet present")
	}
	if snippet["text"] == "eyJhbGciOiJIUzI1NiJ9.e30.c2ln" {
		t.Fatalf("snippet must be masked")
	}
}

func TestWriteSARIF_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSARIF(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"results": []`)) {
		t.Fatalf("expected empty results array; got %s", buf.String())
	}
}
