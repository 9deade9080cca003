// Package report renders batch summaries as styled text or JSON.
package report

import (
	"encoding/json"
	"io"

	"github.com/zacharyburnett/crds/internal/batch"
	"github.com/zacharyburnett/crds/internal/tally"
	"github.com/zacharyburnett/crds/internal/verify"
)

// JSONReport is the top-level JSON output structure.
type JSONReport struct {
	Version  string          `json:"version"`
	RunID    string          `json:"run_id"`
	Context  string          `json:"context"`
	Mode     verify.Mode     `json:"mode"`
	Outcomes []batch.Outcome `json:"outcomes"`
	Summary  JSONSummary     `json:"summary"`
}

// JSONSummary holds the run totals.
type JSONSummary struct {
	Total      int `json:"total"`
	Passed     int `json:"passed"`
	Mismatched int `json:"mismatched"`
	Skipped    int `json:"skipped"`

	tally.Counters
}

// WriteJSON writes the summary as formatted JSON to the writer.
func WriteJSON(w io.Writer, s *batch.Summary, version string) error {
	outcomes := s.Outcomes
	if outcomes == nil {
		outcomes = []batch.Outcome{}
	}
	report := JSONReport{
		Version:  version,
		RunID:    s.RunID,
		Context:  s.Context,
		Mode:     s.Mode,
		Outcomes: outcomes,
		Summary: JSONSummary{
			Total:      len(s.Outcomes),
			Passed:     s.Passed,
			Mismatched: s.Mismatched,
			Skipped:    s.Skipped,
			Counters:   s.Counters,
		},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
