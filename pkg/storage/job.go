package storage

import (
	"context"

	"github.com/riverqueue/river"
)

// JobStorage enqueues the background jobs that execute submitted tasks.
type JobStorage interface {
	// AddJob inserts a River job, inside the surrounding transaction when the
	// handle is transactional. opts may be nil to use the args' own
	// InsertOpts. It reports false with a nil error when River skipped the
	// job because a live job with the same unique args exists.
	AddJob(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (bool, error)
}
