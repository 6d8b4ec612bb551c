package orchestrator

import (
	"fmt"
	"time"

	"scanorch/pkg/domain"
	"scanorch/pkg/serrors"
)

// ValidationError reports the first task rule that failed. It maps to the
// INVALID task status.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}

	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Kind() serrors.Kind { return serrors.ErrBadRequest }

func (e *ValidationError) Is(target error) bool { return target == serrors.ErrBadRequest }

// ErrInvalidCredentials is returned when a task carries no usable credential.
// The authorizer is never consulted in that case.
var ErrInvalidCredentials = serrors.With(serrors.ErrUnauthorized, "Unauthorized: invalid credentials")

// UnauthorizedError is returned when the authorizer denied the task.
type UnauthorizedError struct {
	TaskID domain.TaskID
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("Unauthorized: credentials rejected for scan task %s", e.TaskID)
}

func (e *UnauthorizedError) Kind() serrors.Kind { return serrors.ErrUnauthorized }

func (e *UnauthorizedError) Is(target error) bool { return target == serrors.ErrUnauthorized }

// AuthServiceError is returned when the authorizer itself failed.
type AuthServiceError struct {
	TaskID domain.TaskID
	Err    error
}

func (e *AuthServiceError) Error() string {
	return fmt.Sprintf("authorization service failed for scan task %s: %v", e.TaskID, e.Err)
}

func (e *AuthServiceError) Unwrap() error { return e.Err }

func (e *AuthServiceError) Kind() serrors.Kind { return serrors.ErrUnavailable }

func (e *AuthServiceError) Is(target error) bool { return target == serrors.ErrUnavailable }

// ScanTimeoutError is returned when the dispatch deadline elapsed before every
// unit resolved. No result is produced.
type ScanTimeoutError struct {
	TaskID    domain.TaskID
	Deadline  time.Duration
	Completed int
	Total     int
}

func (e *ScanTimeoutError) Error() string {
	return fmt.Sprintf("scan of task %s timed out after %s (%d of %d units completed)",
		e.TaskID, e.Deadline, e.Completed, e.Total)
}

func (e *ScanTimeoutError) Kind() serrors.Kind { return serrors.ErrTimeout }

func (e *ScanTimeoutError) Is(target error) bool { return target == serrors.ErrTimeout }

// PersistenceError is returned when the repository failed during Op.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("could not %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Kind() serrors.Kind { return serrors.ErrInternal }

func (e *PersistenceError) Is(target error) bool { return target == serrors.ErrInternal }
