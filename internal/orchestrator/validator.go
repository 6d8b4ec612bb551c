package orchestrator

import (
	"strconv"
	"time"

	"scanorch/pkg/domain"
)

// Validator checks scan tasks before any work is dispatched. Validation is
// fail-fast: the first broken rule is reported.
type Validator struct {
	now       func() time.Time
	tolerance time.Duration
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithValidatorClock replaces time.Now. The clock is consulted only for tasks
// without a creation time.
func WithValidatorClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) { v.now = now }
}

// WithStartTimeTolerance lets the scheduled start precede the creation time
// by at most d, absorbing client clock skew.
func WithStartTimeTolerance(d time.Duration) ValidatorOption {
	return func(v *Validator) { v.tolerance = d }
}

// NewValidator returns a Validator.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{now: time.Now}
	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Validate returns nil when task may be dispatched. It has no side effects.
func (v *Validator) Validate(task *domain.ScanTask) *ValidationError {
	switch {
	case task == nil:
		return &ValidationError{Field: "task", Reason: "task is required"}
	case task.ID == "":
		return &ValidationError{Field: "id", Reason: "task id is required"}
	case len(task.TargetURLs) == 0:
		return &ValidationError{Field: "targetUrls", Reason: "at least one target URL is required"}
	case len(task.Protocols) == 0:
		return &ValidationError{Field: "protocolTypes", Reason: "at least one protocol is required"}
	case task.ScanningDepth <= 0 || task.ScanningDepth > domain.MaxDepth:
		return &ValidationError{
			Field:  "scanningDepth",
			Value:  strconv.Itoa(task.ScanningDepth),
			Reason: "must be between 1 and " + strconv.Itoa(domain.MaxDepth),
		}
	}

	for _, p := range task.Protocols {
		if !p.Valid() {
			return &ValidationError{Field: "protocolTypes", Value: string(p), Reason: "unsupported protocol"}
		}
	}

	if verr := v.validateSchedule(task); verr != nil {
		return verr
	}

	for _, u := range task.TargetURLs {
		if !domain.MatchesAny(u, task.Protocols) {
			return &ValidationError{Field: "targetUrls", Value: u, Reason: "URL does not match any declared protocol"}
		}
	}

	return nil
}

func (v *Validator) validateSchedule(task *domain.ScanTask) *ValidationError {
	if task.Scheduling == nil || task.Scheduling.StartTime.IsZero() {
		return &ValidationError{Field: "schedulingMetadata.startTime", Reason: "start time is required"}
	}

	created := task.CreatedAt
	if created.IsZero() {
		created = v.now()
	}
	if task.Scheduling.StartTime.Before(created.Add(-v.tolerance)) {
		return &ValidationError{
			Field:  "schedulingMetadata.startTime",
			Value:  task.Scheduling.StartTime.UTC().Format(time.RFC3339),
			Reason: "start time is in the past",
		}
	}

	return nil
}
