package storage

import (
	"context"

	"scanorch/pkg/domain"
)

// TaskStorage persists scan tasks.
type TaskStorage interface {
	// SaveTask upserts the task by its ID. The whole entity is written; a
	// second save with the same ID replaces the stored row.
	SaveTask(ctx context.Context, task *domain.ScanTask) error
	// TaskByID returns the task with the given ID, or nil when it does not exist.
	TaskByID(ctx context.Context, id domain.TaskID) (*domain.ScanTask, error)
	// UpdateTaskStatus records a lifecycle transition. It returns ErrNotFound
	// when no task has the given ID.
	UpdateTaskStatus(ctx context.Context, id domain.TaskID, status domain.TaskStatus, message string) error
}
