package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prguard/prguard/internal/models"
)

// Summary condenses a report into the fields CI systems care about.
type Summary struct {
	RiskScore         float64                         `json:"risk_score"`
	ConflictCount     int                             `json:"conflict_count"`
	HasCritical       bool                            `json:"has_critical"`
	Status            string                          `json:"status"` // pass, warn, fail
	SeverityBreakdown map[models.ConflictSeverity]int `json:"severity_breakdown"`
}

// FormatJSONReport serializes a full report.
func FormatJSONReport(report *models.ConflictReport, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(report, "", "  ")
	}
	return json.Marshal(report)
}

// WriteJSONReport writes a report to a file, creating parent directories.
func WriteJSONReport(report *models.ConflictReport, path string) error {
	data, err := FormatJSONReport(report, true)
	if err != nil {
		return fmt.Errorf("serializing report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Summarize derives CI status from a report. Any critical conflict fails
// the check; any other conflict warns.
func Summarize(report *models.ConflictReport) Summary {
	status := "pass"
	if report.HasCritical() {
		status = "fail"
	} else if len(report.Conflicts) > 0 {
		status = "warn"
	}

	return Summary{
		RiskScore:         report.RiskScore,
		ConflictCount:     len(report.Conflicts),
		HasCritical:       report.HasCritical(),
		Status:            status,
		SeverityBreakdown: report.CountBySeverity(),
	}
}

// WriteActionOutputs appends step outputs in the GITHUB_OUTPUT key=value
// format so workflow steps can branch on the result. Writes nothing when
// the environment variable is unset.
func WriteActionOutputs(report *models.ConflictReport) error {
	path := os.Getenv("GITHUB_OUTPUT")
	if path == "" {
		return nil
	}

	summary := Summarize(report)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening action output file: %w", err)
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "risk-score=%.0f\nconflict-count=%d\nstatus=%s\n",
		summary.RiskScore, summary.ConflictCount, summary.Status)
	return err
}
