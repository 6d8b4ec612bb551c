package domain

import (
	"fmt"
	"strings"
)

// Severity is the ordinal criticality of a vulnerability.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// ParseSeverity parses a severity name case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToUpper(strings.TrimSpace(s)))
	if !sev.Valid() {
		return "", fmt.Errorf("unknown severity %q", s)
	}

	return sev, nil
}

// Priority returns the numeric priority of the severity, 1 being the most
// severe. Unknown severities have priority 0.
func (s Severity) Priority() int {
	switch s {
	case SeverityCritical:
		return 1
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 4
	case SeverityInfo:
		return 5
	default:
		return 0
	}
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	return s.Priority() > 0
}

// HighestSeverity returns the most severe level present in vulns, or
// SeverityInfo when vulns is empty.
func HighestSeverity(vulns []Vulnerability) Severity {
	highest := SeverityInfo
	for _, v := range vulns {
		if v.Severity.Valid() && v.Severity.Priority() < highest.Priority() {
			highest = v.Severity
		}
	}

	return highest
}
