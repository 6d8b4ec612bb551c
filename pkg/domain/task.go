package domain

import "time"

// MaxDepth is the largest scanning depth a task may request.
const MaxDepth = 10

// TaskID identifies a scan task. It is caller-assigned or generated on intake.
type TaskID string

// TaskStatus is the externally observed lifecycle state of a scan task.
//
// PENDING -> IN_PROGRESS -> COMPLETED | FAILED | INVALID.
type TaskStatus string

const (
	// TaskStatusPending indicates the task was accepted and waits for execution.
	TaskStatusPending TaskStatus = "PENDING"
	// TaskStatusInProgress indicates scan units are being dispatched.
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	// TaskStatusCompleted indicates the aggregated result was persisted.
	TaskStatusCompleted TaskStatus = "COMPLETED"
	// TaskStatusFailed indicates authorization, the deadline or persistence failed.
	TaskStatusFailed TaskStatus = "FAILED"
	// TaskStatusInvalid indicates the task did not pass validation.
	TaskStatusInvalid TaskStatus = "INVALID"
)

// Terminal reports whether no further transitions are possible from s.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusInvalid
}

// SchedulingMetadata describes when and how a task should be run.
type SchedulingMetadata struct {
	// StartTime is the requested start time; it must not precede task creation.
	StartTime time.Time `json:"startTime"`
	// Priority is an advisory priority used when enqueueing the task.
	Priority int `json:"priority,omitempty"`
	// Labels are free-form tags passed through to scanner adapters.
	Labels map[string]string `json:"labels,omitempty"`
}

// ScanTask is a request to scan a set of URLs with one or more protocols.
// A task is immutable once dispatched; re-runs use a new ID.
type ScanTask struct {
	ID            TaskID              `json:"id"`
	TargetURLs    []string            `json:"targetUrls"`
	Credential    Credential          `json:"-"`
	ScanningDepth int                 `json:"scanningDepth"`
	Protocols     []Protocol          `json:"protocolTypes"`
	Scheduling    *SchedulingMetadata `json:"schedulingMetadata,omitempty"`

	Status        TaskStatus `json:"status,omitempty"`
	StatusMessage string     `json:"statusMessage,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TaskResponse is returned to callers submitting or executing a task.
type TaskResponse struct {
	Status     TaskStatus `json:"status"`
	ScanTaskID TaskID     `json:"scanTaskId"`
	Message    string     `json:"message"`
	// ResultID is set once a result was persisted for the task.
	ResultID ResultID `json:"resultId,omitempty"`
}
