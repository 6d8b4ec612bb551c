package postgres_test

import (
	"context"
	"database/sql"
	"testing"

	"scanorch/pkg/storage"
	"scanorch/pkg/storage/postgres"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverdatabasesql"
	"github.com/riverqueue/river/rivertest"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/require"
)

type taskJobArgs struct {
	TaskID string `json:"taskId" river:"unique"`
}

func (taskJobArgs) Kind() string { return "test_task_job" }

func (taskJobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
			ByState: []rivertype.JobState{
				rivertype.JobStateAvailable,
				rivertype.JobStatePending,
				rivertype.JobStateRunning,
				rivertype.JobStateScheduled,
			},
		},
	}
}

func TestPgSQL_AddJob_WithinTransaction(t *testing.T) {
	pg, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	tx, err := pg.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	inserted, err := tx.AddJob(ctx, taskJobArgs{TaskID: "t-1"}, nil)
	require.NoError(t, err)
	require.True(t, inserted)

	rivertest.RequireInsertedTx[*riverdatabasesql.Driver](ctx, t, tx.(*postgres.PgSQL).DB.(*sql.Tx),
		&taskJobArgs{}, nil)
	require.Equal(t, 0, countJobs(t, pg), "job must not be visible before commit")
}

func TestPgSQL_AddJob_RolledBackWithTask(t *testing.T) {
	pg, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	err := pg.WithTx(ctx, func(s storage.AllStorage) error {
		if _, err := s.AddJob(ctx, taskJobArgs{TaskID: "t-1"}, nil); err != nil {
			return err
		}

		return storage.ErrNotFound
	})
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.Equal(t, 0, countJobs(t, pg))
}

func TestPgSQL_AddJob_UniqueDuplicateSkipped(t *testing.T) {
	pg, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	inserted, err := pg.AddJob(ctx, taskJobArgs{TaskID: "t-1"}, nil)
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = pg.AddJob(ctx, taskJobArgs{TaskID: "t-1"}, nil)
	require.NoError(t, err)
	require.False(t, inserted)

	inserted, err = pg.AddJob(ctx, taskJobArgs{TaskID: "t-2"}, &river.InsertOpts{Priority: 2})
	require.NoError(t, err)
	require.True(t, inserted)

	rivertest.RequireManyInserted[*riverdatabasesql.Driver](ctx, t, riverdatabasesql.New(pg.DB.(*sql.DB)),
		[]rivertest.ExpectedJob{
			{Args: &taskJobArgs{}},
			{Args: &taskJobArgs{}, Opts: &rivertest.RequireInsertedOpts{Priority: 2}},
		})
}

func countJobs(t *testing.T, pg *postgres.PgSQL) int {
	t.Helper()

	var n int
	require.NoError(t, pg.DB.(*sql.DB).QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM river_job`).Scan(&n))

	return n
}
