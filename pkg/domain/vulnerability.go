package domain

import "errors"

// Vulnerability is a single finding reported by a scanning tool.
type Vulnerability struct {
	// Type names the class of the finding, e.g. "SQL Injection".
	Type string `json:"type"`
	// Severity is the criticality reported for the finding.
	Severity Severity `json:"severity"`
	// Description is free text provided by the tool.
	Description string `json:"description,omitempty"`
	// Location is the URL or resource identifier the finding refers to.
	Location string `json:"location,omitempty"`
}

// Validate checks that the required fields are present.
func (v Vulnerability) Validate() error {
	if v.Type == "" {
		return errors.New("vulnerability type is required")
	}
	if v.Severity == "" {
		return errors.New("vulnerability severity is required")
	}
	if !v.Severity.Valid() {
		return errors.New("vulnerability severity " + string(v.Severity) + " is unknown")
	}

	return nil
}
