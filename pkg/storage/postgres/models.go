package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"scanorch/pkg/domain"
)

// PgTask is the scan_tasks row.
type PgTask struct {
	ID            string          `db:"id"`
	TargetURLs    json.RawMessage `db:"target_urls"`
	Credential    json.RawMessage `db:"credential"`
	ScanningDepth int             `db:"scanning_depth"`
	Protocols     json.RawMessage `db:"protocols"`
	Scheduling    json.RawMessage `db:"scheduling"`
	Status        string          `db:"status"`
	StatusMessage string          `db:"status_message"`

	CreatedAt time.Time    `db:"created_at" goqu:"defaultifempty"`
	UpdatedAt sql.NullTime `db:"updated_at" goqu:"skipinsert"`
}

func (p *PgTask) ToDomain() (*domain.ScanTask, error) {
	task := &domain.ScanTask{
		ID:            domain.TaskID(p.ID),
		ScanningDepth: p.ScanningDepth,
		Status:        domain.TaskStatus(p.Status),
		StatusMessage: p.StatusMessage,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt.Time,
	}

	if err := json.Unmarshal(p.TargetURLs, &task.TargetURLs); err != nil {
		return nil, fmt.Errorf("could not unmarshal target urls: %w", err)
	}
	if err := json.Unmarshal(p.Protocols, &task.Protocols); err != nil {
		return nil, fmt.Errorf("could not unmarshal protocols: %w", err)
	}
	if err := json.Unmarshal(p.Scheduling, &task.Scheduling); err != nil {
		return nil, fmt.Errorf("could not unmarshal scheduling metadata: %w", err)
	}

	var envelope domain.CredentialEnvelope
	if err := json.Unmarshal(p.Credential, &envelope); err != nil {
		return nil, fmt.Errorf("could not unmarshal credential: %w", err)
	}
	cred, err := envelope.ToCredential()
	if err != nil {
		return nil, fmt.Errorf("could not decode credential: %w", err)
	}
	task.Credential = cred

	return task, nil
}

func (p *PgTask) FromDomain(task *domain.ScanTask) error {
	targetURLs, err := json.Marshal(nonNil(task.TargetURLs))
	if err != nil {
		return fmt.Errorf("could not marshal target urls: %w", err)
	}
	protocols, err := json.Marshal(nonNil(task.Protocols))
	if err != nil {
		return fmt.Errorf("could not marshal protocols: %w", err)
	}
	scheduling, err := json.Marshal(task.Scheduling)
	if err != nil {
		return fmt.Errorf("could not marshal scheduling metadata: %w", err)
	}
	credential, err := json.Marshal(domain.EnvelopeOf(task.Credential))
	if err != nil {
		return fmt.Errorf("could not marshal credential: %w", err)
	}

	*p = PgTask{
		ID:            string(task.ID),
		TargetURLs:    targetURLs,
		Credential:    credential,
		ScanningDepth: task.ScanningDepth,
		Protocols:     protocols,
		Scheduling:    scheduling,
		Status:        string(task.Status),
		StatusMessage: task.StatusMessage,
		CreatedAt:     task.CreatedAt,
	}

	return nil
}

// PgResult is the scan_results row. HighestSeverity, HighestPriority and
// VulnerabilityCount are derived on write and only used for querying.
type PgResult struct {
	ID                 string          `db:"id"`
	ScanTaskID         string          `db:"scan_task_id"`
	Vulnerabilities    json.RawMessage `db:"vulnerabilities"`
	ExecutionLogs      json.RawMessage `db:"execution_logs"`
	HighestSeverity    string          `db:"highest_severity"`
	HighestPriority    int             `db:"highest_priority"`
	VulnerabilityCount int             `db:"vulnerability_count"`
	CompletedAt        time.Time       `db:"completed_at"`
}

func (p *PgResult) ToDomain() (*domain.ScanResult, error) {
	result := &domain.ScanResult{
		ID:         domain.ResultID(p.ID),
		ScanTaskID: domain.TaskID(p.ScanTaskID),
		Timestamp:  p.CompletedAt.UTC(),
	}
	if err := json.Unmarshal(p.Vulnerabilities, &result.Vulnerabilities); err != nil {
		return nil, fmt.Errorf("could not unmarshal vulnerabilities: %w", err)
	}
	if err := json.Unmarshal(p.ExecutionLogs, &result.ExecutionLogs); err != nil {
		return nil, fmt.Errorf("could not unmarshal execution logs: %w", err)
	}

	return result, nil
}

func (p *PgResult) FromDomain(result *domain.ScanResult) error {
	vulns, err := json.Marshal(nonNil(result.Vulnerabilities))
	if err != nil {
		return fmt.Errorf("could not marshal vulnerabilities: %w", err)
	}
	logs, err := json.Marshal(nonNil(result.ExecutionLogs))
	if err != nil {
		return fmt.Errorf("could not marshal execution logs: %w", err)
	}

	highest := result.HighestSeverity()
	*p = PgResult{
		ID:                 string(result.ID),
		ScanTaskID:         string(result.ScanTaskID),
		Vulnerabilities:    vulns,
		ExecutionLogs:      logs,
		HighestSeverity:    string(highest),
		HighestPriority:    highest.Priority(),
		VulnerabilityCount: len(result.Vulnerabilities),
		CompletedAt:        result.Timestamp,
	}

	return nil
}

func pgResultsToDomain(rows []PgResult) ([]domain.ScanResult, error) {
	out := make([]domain.ScanResult, 0, len(rows))
	for _, row := range rows {
		d, err := row.ToDomain()
		if err != nil {
			return nil, err
		}

		out = append(out, *d)
	}

	return out, nil
}

// nonNil keeps empty slices encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}

	return s
}
