package domain_test

import (
	"testing"
	"time"

	"scanorch/pkg/domain"

	"github.com/stretchr/testify/require"
)

func TestSeverity_Priority(t *testing.T) {
	require.Equal(t, 1, domain.SeverityCritical.Priority())
	require.Equal(t, 5, domain.SeverityInfo.Priority())
	require.Equal(t, 0, domain.Severity("BOGUS").Priority())

	sev, err := domain.ParseSeverity("medium")
	require.NoError(t, err)
	require.Equal(t, domain.SeverityMedium, sev)
}

func TestHighestSeverity(t *testing.T) {
	require.Equal(t, domain.SeverityInfo, domain.HighestSeverity(nil))

	vulns := []domain.Vulnerability{
		{Type: "a", Severity: domain.SeverityLow},
		{Type: "b", Severity: domain.SeverityHigh},
		{Type: "c", Severity: domain.SeverityMedium},
	}
	require.Equal(t, domain.SeverityHigh, domain.HighestSeverity(vulns))
}

func validResult() *domain.ScanResult {
	return &domain.ScanResult{
		ID:         "r-1",
		ScanTaskID: "t-1",
		Vulnerabilities: []domain.Vulnerability{
			{Type: "XSS", Severity: domain.SeverityHigh, Location: "https://a.test/q"},
			{Type: "Header", Severity: domain.SeverityInfo},
			{Type: "XSS", Severity: domain.SeverityHigh, Location: "https://a.test/r"},
		},
		Timestamp:     time.Now(),
		ExecutionLogs: []string{"started", "done"},
	}
}

func TestScanResult_Validate(t *testing.T) {
	require.NoError(t, validResult().Validate())

	var nilResult *domain.ScanResult
	require.Error(t, nilResult.Validate())

	r := validResult()
	r.ExecutionLogs = nil
	require.ErrorContains(t, r.Validate(), "execution log")

	r = validResult()
	r.Timestamp = time.Time{}
	require.ErrorContains(t, r.Validate(), "timestamp")

	r = validResult()
	r.Vulnerabilities[1].Type = ""
	require.ErrorContains(t, r.Validate(), "vulnerability 1")

	r = validResult()
	r.Vulnerabilities[0].Severity = "SEVERE"
	require.ErrorContains(t, r.Validate(), "unknown")
}

func TestScanResult_Summary(t *testing.T) {
	r := validResult()
	require.Equal(t,
		"Scan completed with 3 findings (2 HIGH, 1 INFO). Execution logs contain 2 entries.",
		r.Summary())

	r.Vulnerabilities = nil
	require.Equal(t, "Scan completed with 0 findings. Execution logs contain 2 entries.", r.Summary())
}
