// Package scantool defines the contract between the scan dispatcher and the
// external scanning tools, plus a protocol keyed registry of tool adapters.
package scantool

import (
	"context"
	"fmt"

	"scanorch/pkg/domain"
	"scanorch/pkg/serrors"
)

// Phases reported by ExecutionError.
const (
	PhaseLookup  = "lookup"
	PhaseConnect = "connect"
	PhaseSubmit  = "submit"
	PhasePoll    = "poll"
	PhaseResults = "results"
	PhaseRun     = "run"
)

// Output is what a single adapter invocation produced for one target.
type Output struct {
	Logs            []string
	Vulnerabilities []domain.Vulnerability
}

// Merge appends o2 to o.
func (o *Output) Merge(o2 Output) {
	o.Logs = append(o.Logs, o2.Logs...)
	o.Vulnerabilities = append(o.Vulnerabilities, o2.Vulnerabilities...)
}

// Adapter scans one target URL with one external tool. Implementations must
// honor ctx cancellation and must be safe for concurrent use.
//
// On failure an adapter may return the partial Output gathered so far along
// with an *ExecutionError.
//
//go:generate mockgen -package mockscantool -source=scantool.go -destination=mock/mockscantool.go *
type Adapter interface {
	// Name identifies the tool in logs and errors.
	Name() string
	// Scan runs the tool against target.
	Scan(ctx context.Context, target string, cfg domain.ScanConfig) (Output, error)
}

// ExecutionError reports a failed tool invocation.
type ExecutionError struct {
	Tool  string
	Phase string
	Err   error
}

// Fail builds an ExecutionError for tool in phase.
func Fail(tool, phase string, err error) *ExecutionError {
	return &ExecutionError{Tool: tool, Phase: phase, Err: err}
}

func (e *ExecutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s failed during %s", e.Tool, e.Phase)
	}

	return fmt.Sprintf("%s failed during %s: %v", e.Tool, e.Phase, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Kind classifies tool failures as an unavailable dependency.
func (e *ExecutionError) Kind() serrors.Kind { return serrors.ErrUnavailable }

func (e *ExecutionError) Is(target error) bool { return target == serrors.ErrUnavailable }
