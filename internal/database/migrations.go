package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"

	"shopease/migrations"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// MigrationsFS returns the migration files to apply: dir on disk when set,
// otherwise the set compiled into the binary
func MigrationsFS(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

// RunMigrations applies pending migrations from fsys and logs the resulting
// schema version
func RunMigrations(ctx context.Context, db *sql.DB, fsys fs.FS, logger *zap.Logger) error {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, res := range results {
		logger.Info("Applied migration",
			zap.String("source", res.Source.Path),
			zap.Int64("version", res.Source.Version),
			zap.Duration("took", res.Duration),
		)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	logger.Info("Storage schema ready", zap.Int64("version", version))
	return nil
}
