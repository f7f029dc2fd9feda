package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	migrationsDir   = "migrations"
	migrationsTable = "schema_migrations"
)

// slogGooseLogger adapts goose's printf-style logger onto slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements goose.Logger.
func (l *slogGooseLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf implements goose.Logger. It logs at error level and leaves process
// termination to the caller, which receives the error from goose.
func (l *slogGooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func configureGoose(logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	goose.SetBaseFS(migrationsFS)
	goose.SetTableName(migrationsTable)
	goose.SetLogger(&slogGooseLogger{logger: logger.With(slog.String("component", "migrations"))})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := configureGoose(logger); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := configureGoose(logger); err != nil {
		return err
	}
	if err := goose.DownContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return nil
}

// MigrationStatus logs the applied state of every migration.
func MigrationStatus(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := configureGoose(logger); err != nil {
		return err
	}
	if err := goose.StatusContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}
	return nil
}

// SchemaVersion returns the current schema version.
func SchemaVersion(ctx context.Context, db *sql.DB, logger *slog.Logger) (int64, error) {
	if err := configureGoose(logger); err != nil {
		return 0, err
	}
	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
