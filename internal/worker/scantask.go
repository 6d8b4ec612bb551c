package worker

import (
	"context"
	"fmt"
	"time"

	"scanorch/internal/orchestrator"
	"scanorch/pkg/logger"

	"github.com/riverqueue/river"
	"go.uber.org/zap"
)

// ScanTaskWorker executes submitted scan tasks. Every task outcome is final:
// failures cancel the job instead of letting River retry it, because a
// re-run must use a new task.
type ScanTaskWorker struct {
	river.WorkerDefaults[orchestrator.JobArgs]

	orchestrator orchestrator.Orchestrator
	timeout      time.Duration
}

// NewScanTaskWorker returns a worker running tasks through orch. A zero
// timeout keeps River's default.
func NewScanTaskWorker(orch orchestrator.Orchestrator, timeout time.Duration) *ScanTaskWorker {
	return &ScanTaskWorker{orchestrator: orch, timeout: timeout}
}

// Timeout overrides River's job timeout.
func (w *ScanTaskWorker) Timeout(*river.Job[orchestrator.JobArgs]) time.Duration {
	return w.timeout
}

func (w *ScanTaskWorker) Work(ctx context.Context, job *river.Job[orchestrator.JobArgs]) error {
	ctx = logger.WithFields(ctx, zap.Int64("jobID", job.ID), zap.String("taskID", string(job.Args.TaskID)))

	resp, err := w.orchestrator.Execute(ctx, job.Args.TaskID)
	if err != nil {
		logger.Error(ctx, "error in executing scan task", zap.Error(err))

		return river.JobCancel(fmt.Errorf("could not execute scan task: %w", err)) //nolint: wrapcheck
	}

	logger.Info(ctx, "scan task finished",
		zap.String("status", string(resp.Status)),
		zap.String("resultID", string(resp.ResultID)))

	return nil
}
