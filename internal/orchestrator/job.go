package orchestrator

import (
	"time"

	"scanorch/pkg/domain"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// JobArgs contains the arguments for a scan task job submitted to River.
// A task is enqueued at most once while a job for it is still live.
type JobArgs struct {
	TaskID domain.TaskID `json:"taskId" river:"unique"`

	// maxAttempts configures the maximum number of times River runs the job.
	maxAttempts int
	// scheduledAt delays the job until the task's requested start time.
	scheduledAt time.Time
	// priority is River's 1 (highest) to 4 priority.
	priority int
}

// Kind returns the River job kind used to register and dispatch the worker.
func (args JobArgs) Kind() string { return "ScanTaskJob" }

// InsertOpts returns the River options that control how the job is enqueued.
func (args JobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		MaxAttempts: args.maxAttempts,
		Priority:    args.priority,
		ScheduledAt: args.scheduledAt,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
			ByState: []rivertype.JobState{
				rivertype.JobStateAvailable,
				rivertype.JobStateCompleted,
				rivertype.JobStatePending,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	}
}

func newJobArgs(task *domain.ScanTask, maxAttempts int) JobArgs {
	args := JobArgs{TaskID: task.ID, maxAttempts: maxAttempts}
	if task.Scheduling != nil {
		args.scheduledAt = task.Scheduling.StartTime
		if p := task.Scheduling.Priority; p > 0 {
			args.priority = min(p, 4)
		}
	}

	return args
}
