package postgres

import (
	"context"
	"fmt"

	"scanorch/pkg/domain"
	"scanorch/pkg/storage"

	"github.com/doug-martin/goqu/v9"
)

const (
	tasksTable = "scan_tasks"
)

// SaveTask inserts the task or fully replaces the row with the same id.
func (p *PgSQL) SaveTask(ctx context.Context, task *domain.ScanTask) error {
	var row PgTask
	if err := row.FromDomain(task); err != nil {
		return err
	}

	_, err := p.Builder.Insert(tasksTable).
		Rows(row).
		OnConflict(goqu.DoUpdate("id", goqu.Record{
			"target_urls":    goqu.I("excluded.target_urls"),
			"credential":     goqu.I("excluded.credential"),
			"scanning_depth": goqu.I("excluded.scanning_depth"),
			"protocols":      goqu.I("excluded.protocols"),
			"scheduling":     goqu.I("excluded.scheduling"),
			"status":         goqu.I("excluded.status"),
			"status_message": goqu.I("excluded.status_message"),
			"created_at":     goqu.I("excluded.created_at"),
			"updated_at":     goqu.L("CURRENT_TIMESTAMP"),
		})).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("could not save task into pg: %w", err)
	}

	return nil
}

// TaskByID returns the task with the given id, or nil when not found.
func (p *PgSQL) TaskByID(ctx context.Context, id domain.TaskID) (*domain.ScanTask, error) {
	var row PgTask
	found, err := p.Builder.From(tasksTable).
		Where(goqu.I("id").Eq(string(id))).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch task by id: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}

// UpdateTaskStatus sets status and status message of a single task.
func (p *PgSQL) UpdateTaskStatus(ctx context.Context,
	id domain.TaskID,
	status domain.TaskStatus,
	message string) error {
	res, err := p.Builder.Update(tasksTable).
		Set(goqu.Record{
			"status":         string(status),
			"status_message": message,
			"updated_at":     goqu.L("CURRENT_TIMESTAMP"),
		}).
		Where(goqu.I("id").Eq(string(id))).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("could not update task status in pg: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("task %s: %w", id, storage.ErrNotFound)
	}

	return nil
}
