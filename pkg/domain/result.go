package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ResultID identifies a scan result.
type ResultID string

// ResultStatus is reported to callers submitting or querying results.
type ResultStatus string

const (
	// ResultStatusProcessed marks a result produced by orchestration.
	ResultStatusProcessed ResultStatus = "PROCESSED"
	// ResultStatusStored marks an externally submitted result that was persisted.
	ResultStatusStored ResultStatus = "STORED"
	// ResultStatusInvalid marks a submitted result that failed validation.
	ResultStatusInvalid ResultStatus = "INVALID"
	// ResultStatusError marks a result that could not be persisted or loaded.
	ResultStatusError ResultStatus = "ERROR"
)

// ScanResult is the aggregated outcome of every scan unit of one task.
// ExecutionLogs always holds at least one entry.
type ScanResult struct {
	ID              ResultID        `json:"resultId"`
	ScanTaskID      TaskID          `json:"scanTaskId"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	Timestamp       time.Time       `json:"timestamp"`
	ExecutionLogs   []string        `json:"executionLogs"`
}

// Validate checks the result invariants.
func (r *ScanResult) Validate() error {
	switch {
	case r == nil:
		return errors.New("result is required")
	case r.ID == "":
		return errors.New("result id is required")
	case r.ScanTaskID == "":
		return errors.New("scan task id is required")
	case r.Timestamp.IsZero():
		return errors.New("timestamp is required")
	case len(r.ExecutionLogs) == 0:
		return errors.New("at least one execution log entry is required")
	}

	for i, v := range r.Vulnerabilities {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("vulnerability %d: %w", i, err)
		}
	}

	return nil
}

// HighestSeverity returns the most severe level among the result's findings.
func (r *ScanResult) HighestSeverity() Severity {
	return HighestSeverity(r.Vulnerabilities)
}

// Summary renders a one-line human-readable summary of the result.
func (r *ScanResult) Summary() string {
	counts := make(map[Severity]int, 5)
	for _, v := range r.Vulnerabilities {
		counts[v.Severity]++
	}

	var parts []string
	for _, sev := range []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo} {
		if n := counts[sev]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, sev))
		}
	}

	findings := fmt.Sprintf("Scan completed with %d findings", len(r.Vulnerabilities))
	if len(parts) > 0 {
		findings += " (" + strings.Join(parts, ", ") + ")"
	}

	return fmt.Sprintf("%s. Execution logs contain %d entries.", findings, len(r.ExecutionLogs))
}

// ResultResponse is returned to callers submitting or querying results.
type ResultResponse struct {
	Status     ResultStatus `json:"status"`
	ResultID   ResultID     `json:"resultId,omitempty"`
	ScanTaskID TaskID       `json:"scanTaskId"`
	Summary    string       `json:"summary"`
}
