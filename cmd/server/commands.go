package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/phrazzld/taskshare/internal/config"
	"github.com/phrazzld/taskshare/internal/platform/logger"
	"github.com/phrazzld/taskshare/internal/platform/postgres"
	"github.com/phrazzld/taskshare/internal/redact"
	"github.com/spf13/cobra"
)

// cliDeps holds the process-level collaborators commands depend on, so
// tests can swap the database and configuration source.
type cliDeps struct {
	loadConfig func() (*config.Config, error)
	newLogger  func(cfg config.ServerConfig) (*slog.Logger, error)
	openDB     func(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error)
	out        io.Writer
}

func defaultDeps() cliDeps {
	return cliDeps{
		loadConfig: config.Load,
		newLogger:  logger.Setup,
		openDB: func(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
			return postgres.Open(ctx, cfg.URL, postgres.PoolConfig{
				MaxOpenConns: cfg.MaxOpenConns,
				MaxIdleConns: cfg.MaxIdleConns,
			})
		},
		out: os.Stdout,
	}
}

// bootstrap loads configuration, sets up logging and connects to the
// database. The caller closes the returned DB.
func (rt cliDeps) bootstrap(ctx context.Context) (*config.Config, *slog.Logger, *sql.DB, error) {
	cfg, err := rt.loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := rt.newLogger(cfg.Server)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := rt.openDB(ctx, cfg.Database)
	if err != nil {
		log.Error("database connection failed", slog.String("error", redact.Error(err)))
		return nil, nil, nil, err
	}
	log.Debug("database connection established",
		slog.Int("max_open_conns", cfg.Database.MaxOpenConns))
	return cfg, log, db, nil
}

func closeDB(db *sql.DB, log *slog.Logger) {
	if err := db.Close(); err != nil {
		log.Error("failed to close database", slog.String("error", err.Error()))
	}
}

func newRootCmd(rt cliDeps) *cobra.Command {
	root := &cobra.Command{
		Use:   "taskshare",
		Short: "Shared task management API with recurring tasks",
		Long: `taskshare serves a JSON API for tasks that can be shared with other users
as viewers or editors, and materializes occurrences of recurring tasks on
a schedule.

Configuration comes from config.yaml and TASKSHARE_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(rt),
		newMigrateCmd(rt),
		newTickCmd(rt),
		newVersionCmd(rt),
	)
	return root
}

func newServeCmd(rt cliDeps) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the recurring task scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, db, err := rt.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer closeDB(db, log)

			if migrate {
				if err := postgres.Migrate(ctx, db, log); err != nil {
					return err
				}
			}

			app, err := newApplication(ctx, cfg, log, db)
			if err != nil {
				return err
			}
			defer app.close()

			return app.serve(ctx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func newMigrateCmd(rt cliDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	steps := []struct {
		use   string
		short string
		run   func(ctx context.Context, db *sql.DB, log *slog.Logger) error
	}{
		{use: "up", short: "Apply every pending migration", run: postgres.Migrate},
		{use: "down", short: "Roll back the most recent migration", run: postgres.MigrateDown},
		{use: "status", short: "Show the applied state of every migration", run: postgres.MigrationStatus},
	}

	for _, step := range steps {
		run := step.run
		cmd.AddCommand(&cobra.Command{
			Use:   step.use,
			Short: step.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				_, log, db, err := rt.bootstrap(ctx)
				if err != nil {
					return err
				}
				defer closeDB(db, log)

				if err := run(ctx, db, log); err != nil {
					return err
				}

				schemaVersion, err := postgres.SchemaVersion(ctx, db, log)
				if err != nil {
					return err
				}
				fmt.Fprintf(rt.out, "schema version: %d\n", schemaVersion)
				return nil
			},
		})
	}
	return cmd
}

func newTickCmd(rt cliDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run a single recurring task materialization pass",
		Long: `Run one materialization pass and exit. Use it when occurrences are
generated by an external scheduler instead of "serve".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, db, err := rt.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer closeDB(db, log)

			app, err := newApplication(ctx, cfg, log, db)
			if err != nil {
				return err
			}
			defer app.close()

			res, err := app.engine.MaterializeDueOccurrences(ctx, app.engine.Now())
			fmt.Fprintf(rt.out, "due=%d created=%d skipped=%d failed=%d\n",
				res.Due, res.Created, res.Skipped, res.Failed)
			return err
		},
	}
}

func newVersionCmd(rt cliDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(rt.out, "taskshare %s (commit %s)\n", version, commit)
		},
	}
}
