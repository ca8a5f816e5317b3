package report

import (
	"encoding/json"
	"io"

	"github.com/ferretwatch/ferretwatch/internal/scanner"
	"github.com/ferretwatch/ferretwatch/internal/types"
)

// WriteJSON writes findings as an indented JSON array; no findings is [].
func WriteJSON(w io.Writer, findings []types.Finding) error {
	if findings == nil {
		findings = []types.Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(findings)
}

// JSONReport is the extended JSON shape carrying scan statistics.
type JSONReport struct {
	Findings     []types.Finding `json:"findings"`
	Stats        scanner.Stats   `json:"stats"`
	FilesScanned int             `json:"files_scanned"`
}

func WriteJSONReport(w io.Writer, r JSONReport) error {
	if r.Findings == nil {
		r.Findings = []types.Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
