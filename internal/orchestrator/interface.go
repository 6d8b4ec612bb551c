// Package orchestrator turns scan tasks into scan results: it validates and
// authorizes a task, fans its (protocol, URL) units out over a bounded pool
// of scanner adapters, aggregates their outcomes and persists the result.
package orchestrator

import (
	"context"

	"scanorch/pkg/domain"
)

// Orchestrator is the entry point used by the API, the worker and the CLI.
//
//go:generate mockgen -package mockorchestrator -source=interface.go -destination=mock/mockorchestrator.go *
type Orchestrator interface {
	// Submit validates task, stores it as PENDING and enqueues it for
	// background execution.
	Submit(ctx context.Context, task *domain.ScanTask) (domain.TaskResponse, error)
	// Run stores task and executes it synchronously.
	Run(ctx context.Context, task *domain.ScanTask) (domain.TaskResponse, error)
	// Execute runs a previously submitted task.
	Execute(ctx context.Context, id domain.TaskID) (domain.TaskResponse, error)
	// StoreResult validates and stores an externally produced result.
	StoreResult(ctx context.Context, result *domain.ScanResult) (domain.ResultResponse, error)
	// Task returns a stored task.
	Task(ctx context.Context, id domain.TaskID) (*domain.ScanTask, error)
	// Results returns every result stored for a task, oldest first.
	Results(ctx context.Context, id domain.TaskID) ([]domain.ScanResult, error)
}
