package orchestrator

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"scanorch/pkg/domain"

	"github.com/google/uuid"
)

// NoUnitsLog is the only log line of a result produced from zero units.
const NoUnitsLog = "no scan units were executed"

// Aggregator merges unit outcomes into a ScanResult in submission order,
// whatever order the units completed in.
type Aggregator struct {
	now   func() time.Time
	newID func() domain.ResultID
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithAggregatorClock replaces time.Now.
func WithAggregatorClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) { a.now = now }
}

// WithResultIDs replaces the random UUID generator.
func WithResultIDs(newID func() domain.ResultID) AggregatorOption {
	return func(a *Aggregator) { a.newID = newID }
}

// NewAggregator returns an Aggregator.
func NewAggregator(opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		now:   time.Now,
		newID: func() domain.ResultID { return domain.ResultID(uuid.NewString()) },
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Aggregate never fails. Failed units contribute one log line naming the
// protocol, URL, tool and phase; invalid findings are dropped with a log
// line. The result always has at least one log entry.
func (a *Aggregator) Aggregate(taskID domain.TaskID, outcomes []UnitOutcome) *domain.ScanResult {
	result := &domain.ScanResult{
		ID:              a.newID(),
		ScanTaskID:      taskID,
		Vulnerabilities: []domain.Vulnerability{},
	}

	if len(outcomes) == 0 {
		result.ExecutionLogs = []string{NoUnitsLog}
		result.Timestamp = a.now().UTC()

		return result
	}

	sorted := slices.SortedStableFunc(slices.Values(outcomes), func(x, y UnitOutcome) int {
		return cmp.Compare(x.Seq, y.Seq)
	})

	failed := 0
	for _, o := range sorted {
		result.ExecutionLogs = append(result.ExecutionLogs, o.Output.Logs...)

		for _, v := range o.Output.Vulnerabilities {
			if err := v.Validate(); err != nil {
				result.ExecutionLogs = append(result.ExecutionLogs,
					fmt.Sprintf("Discarded invalid finding (%s %s): %v", o.Protocol, o.URL, err))

				continue
			}
			result.Vulnerabilities = append(result.Vulnerabilities, v)
		}

		if o.Err != nil {
			failed++
			result.ExecutionLogs = append(result.ExecutionLogs,
				fmt.Sprintf("Scan error (%s %s): %v", o.Protocol, o.URL, o.Err))
		}
	}

	result.ExecutionLogs = append(result.ExecutionLogs, fmt.Sprintf(
		"Aggregated %d scan units (%d failed) into %d findings; highest severity %s",
		len(sorted), failed, len(result.Vulnerabilities), result.HighestSeverity()))
	result.Timestamp = a.now().UTC()

	return result
}
