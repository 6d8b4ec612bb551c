// Package worker runs submitted scan tasks in the background on River.
package worker

import (
	"context"
	"fmt"
	"time"

	"scanorch/internal/orchestrator"
	"scanorch/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

// Options configure the River client.
type Options struct {
	// MaxWorkers is the number of tasks executed concurrently by this process.
	MaxWorkers int
	// JobTimeout bounds one task execution. It must exceed the dispatch deadline.
	JobTimeout time.Duration
}

// Start registers the scan task worker and starts a River client processing
// the default queue.
func Start(
	ctx context.Context,
	dbPool *pgxpool.Pool,
	orch orchestrator.Orchestrator,
	opts Options,
) (*river.Client[pgx.Tx], error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, NewScanTaskWorker(orch, opts.JobTimeout))

	riverClient, err := river.NewClient(riverpgxv5.New(dbPool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: max(opts.MaxWorkers, 1)},
		},
		Workers: workers,
		Logger:  logger.Slog(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create river queue client: %w", err)
	}

	if err := riverClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("could not start river queue client: %w", err)
	}

	return riverClient, nil
}
