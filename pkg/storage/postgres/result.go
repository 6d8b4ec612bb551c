package postgres

import (
	"context"
	"fmt"

	"scanorch/pkg/domain"

	"github.com/doug-martin/goqu/v9"
)

const (
	resultsTable = "scan_results"
)

// SaveResult inserts the result or fully replaces the row with the same id.
func (p *PgSQL) SaveResult(ctx context.Context, result *domain.ScanResult) error {
	var row PgResult
	if err := row.FromDomain(result); err != nil {
		return err
	}

	_, err := p.Builder.Insert(resultsTable).
		Rows(row).
		OnConflict(goqu.DoUpdate("id", goqu.Record{
			"scan_task_id":        goqu.I("excluded.scan_task_id"),
			"vulnerabilities":     goqu.I("excluded.vulnerabilities"),
			"execution_logs":      goqu.I("excluded.execution_logs"),
			"highest_severity":    goqu.I("excluded.highest_severity"),
			"highest_priority":    goqu.I("excluded.highest_priority"),
			"vulnerability_count": goqu.I("excluded.vulnerability_count"),
			"completed_at":        goqu.I("excluded.completed_at"),
		})).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("could not save result into pg: %w", err)
	}

	return nil
}

// ResultsByTaskID returns all results of a task ordered by completion time.
func (p *PgSQL) ResultsByTaskID(ctx context.Context, taskID domain.TaskID) ([]domain.ScanResult, error) {
	var rows []PgResult
	err := p.Builder.From(resultsTable).
		Where(goqu.I("scan_task_id").Eq(string(taskID))).
		Order(goqu.I("completed_at").Asc(), goqu.I("id").Asc()).
		Executor().ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("could not fetch results by task id: %w", err)
	}

	return pgResultsToDomain(rows)
}
