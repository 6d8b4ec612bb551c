package storage

import (
	"context"

	"scanorch/pkg/domain"
)

// ResultStorage persists aggregated scan results.
type ResultStorage interface {
	// SaveResult upserts the result by its ID, replacing any stored row with
	// the same ID. The derived highest severity is stored alongside for queries.
	SaveResult(ctx context.Context, result *domain.ScanResult) error
	// ResultsByTaskID returns every result of a task ordered by completion time.
	ResultsByTaskID(ctx context.Context, taskID domain.TaskID) ([]domain.ScanResult, error)
}
