package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"scanorch/pkg/logger"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverdatabasesql"
	"github.com/riverqueue/river/rivertype"
	"go.uber.org/zap"
)

// insertClient builds an insert-only River client over db. db may be nil when
// the client is only used with InsertTx.
func insertClient(ctx context.Context, db *sql.DB) (*river.Client[*sql.Tx], error) {
	client, err := river.NewClient(riverdatabasesql.New(db), &river.Config{
		Logger: logger.Slog(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create river queue client: %w", err)
	}

	return client, nil
}

// AddJob enqueues a new River job using the underlying database handle.
//
// Inside a transaction the job is inserted with InsertTx and only becomes
// visible once the surrounding transaction commits. Outside a transaction it
// is inserted directly. The returned bool is false when River skipped the
// job as a unique duplicate.
func (p *PgSQL) AddJob(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (bool, error) {
	var (
		res *rivertype.JobInsertResult
		err error
	)

	switch db := p.DB.(type) {
	case *sql.Tx:
		client, cErr := insertClient(ctx, nil)
		if cErr != nil {
			return false, cErr
		}
		res, err = client.InsertTx(ctx, db, args, opts)
	case *sql.DB:
		client, cErr := insertClient(ctx, db)
		if cErr != nil {
			return false, cErr
		}
		res, err = client.Insert(ctx, args, opts)
	default:
		return false, fmt.Errorf("unsupported db handle %T", p.DB)
	}
	if err != nil {
		return false, fmt.Errorf("could not insert job: %w", err)
	}

	logger.Debug(ctx, "job enqueued",
		zap.String("kind", args.Kind()),
		zap.Int64("jobID", res.Job.ID),
		zap.Bool("duplicate", res.UniqueSkippedAsDuplicate))

	return !res.UniqueSkippedAsDuplicate, nil
}
