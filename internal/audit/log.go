// Package audit keeps an append-only JSONL history of scans. Secret values
// never reach the log.
package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ferretwatch/ferretwatch/internal/types"
)

type ScanRecord struct {
	Timestamp      time.Time        `json:"timestamp"`
	ScanID         string           `json:"scan_id"`
	Root           string           `json:"root"`
	TotalFindings  int              `json:"total_findings"`
	NewFindings    int              `json:"new_findings"`
	BaselinedCount int              `json:"baselined_count"`
	RiskCounts     map[string]int   `json:"risk_counts"`
	FilesScanned   int              `json:"files_scanned"`
	Duration       string           `json:"duration"`
	Aborted        bool             `json:"aborted,omitempty"`
	DegradedRules  []string         `json:"degraded_rules,omitempty"`
	BaselineFile   string           `json:"baseline_file,omitempty"`
	TopFindings    []FindingSummary `json:"top_findings,omitempty"`
	AllFindings    []types.Finding  `json:"all_findings,omitempty"`
}

type FindingSummary struct {
	Source    string `json:"source"`
	Type      string `json:"type"`
	RiskLevel string `json:"risk_level"`
	Line      int    `json:"line"`
}

// maxRecordSize bounds one JSONL line; records embed every finding.
const maxRecordSize = 16 << 20

type AuditLog struct {
	logPath string
}

func NewAuditLog(root string) *AuditLog {
	gitDir := filepath.Join(root, ".git")
	logPath := filepath.Join(root, ".ferretwatch_audit.jsonl")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		logPath = filepath.Join(gitDir, "ferretwatch_audit.jsonl")
	}
	return &AuditLog{logPath: logPath}
}

// Path returns the log file location.
func (a *AuditLog) Path() string { return a.logPath }

// LoadHistory returns records newest first. Undecodable lines are skipped.
func (a *AuditLog) LoadHistory() ([]ScanRecord, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []ScanRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64<<10), maxRecordSize)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var record ScanRecord
		if err := json.Unmarshal(line, &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (a *AuditLog) LogScan(record ScanRecord) error {
	if record.ScanID == "" {
		record.ScanID = fmt.Sprintf("scan_%d", time.Now().UnixNano())
	}

	// owner-only: records carry finding metadata
	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// Summary is the scan outcome a record is built from.
type Summary struct {
	Root          string
	All           []types.Finding
	New           []types.Finding
	FilesScanned  int
	Duration      time.Duration
	Aborted       bool
	DegradedRules []string
	BaselineFile  string
}

func CreateScanRecord(s Summary) ScanRecord {
	riskCounts := make(map[string]int)
	for _, f := range s.All {
		riskCounts[string(f.RiskLevel)]++
	}

	topFindings := make([]FindingSummary, 0, 10)
	for i, f := range s.New {
		if i >= 10 {
			break
		}
		topFindings = append(topFindings, FindingSummary{
			Source:    f.Source,
			Type:      f.Type,
			RiskLevel: string(f.RiskLevel),
			Line:      f.Line,
		})
	}

	return ScanRecord{
		Timestamp:      time.Now(),
		Root:           s.Root,
		TotalFindings:  len(s.All),
		NewFindings:    len(s.New),
		BaselinedCount: len(s.All) - len(s.New),
		RiskCounts:     riskCounts,
		FilesScanned:   s.FilesScanned,
		Duration:       s.Duration.String(),
		Aborted:        s.Aborted,
		DegradedRules:  s.DegradedRules,
		BaselineFile:   s.BaselineFile,
		TopFindings:    topFindings,
		AllFindings:    redactSecrets(s.All),
	}
}

// redactSecrets returns a copy of findings with values and context redacted.
func redactSecrets(findings []types.Finding) []types.Finding {
	redacted := make([]types.Finding, len(findings))
	for i, f := range findings {
		redacted[i] = f
		if f.Value != "" {
			redacted[i].Value = "[REDACTED]"
		}
		redacted[i].Context = ""
	}
	return redacted
}
