package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"scanorch/pkg/logger"
	"scanorch/pkg/storage"

	"github.com/pressly/goose/v3"
	"github.com/riverqueue/river/riverdriver/riverdatabasesql"
	"github.com/riverqueue/river/rivermigrate"
	"go.uber.org/zap"
)

// MigrationsDir is the directory inside the migrations filesystem that holds
// the goose SQL files.
const MigrationsDir = "migrations"

// Migrate brings the schema to its latest version: first the service tables
// from the goose files under MigrationsDir in fsys, then River's job tables.
// It must be called on the pooled handle.
func (p *PgSQL) Migrate(ctx context.Context, fsys fs.FS) error {
	db, ok := p.DB.(*sql.DB)
	if !ok {
		return storage.ErrAlreadyInTx
	}

	sub, err := fs.Sub(fsys, MigrationsDir)
	if err != nil {
		return fmt.Errorf("could not open migrations dir: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, sub)
	if err != nil {
		return fmt.Errorf("could not create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("could not apply migrations: %w", err)
	}
	for _, res := range results {
		logger.Info(ctx, "migration applied",
			zap.Int64("version", res.Source.Version),
			zap.Duration("duration", res.Duration))
	}

	return migrateRiver(ctx, db)
}

func migrateRiver(ctx context.Context, db *sql.DB) error {
	migrator, err := rivermigrate.New(riverdatabasesql.New(db), nil)
	if err != nil {
		return fmt.Errorf("could not create river queue migrator: %w", err)
	}

	all := migrator.AllVersions()
	latest := all[len(all)-1].Version
	current := 0
	existing, err := migrator.ExistingVersions(ctx)
	if err != nil {
		return fmt.Errorf("could not get existing river queue migrations: %w", err)
	}
	if len(existing) > 0 {
		current = existing[len(existing)-1].Version
	}
	if latest <= current {
		return nil
	}

	if _, err = migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{
		TargetVersion: latest,
	}); err != nil {
		return fmt.Errorf("could not migrate river queue tables: %w", err)
	}
	logger.Info(ctx, "river queue migrated", zap.Int("from", current), zap.Int("to", latest))

	return nil
}
