package main

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/mentorhub/mentorhub-api/config"
	"github.com/mentorhub/mentorhub-api/internal/database"
	"github.com/mentorhub/mentorhub-api/pkg/db"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "file://migrations"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		cfg            *config.Config
		migrationsPath string
	)

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the MentorHub PostgreSQL schema",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if loaded.Database.Driver != config.StoreDriverPostgres {
				return fmt.Errorf("migrations only apply to the postgres store, STORE_DRIVER=%s", loaded.Database.Driver)
			}
			if err := logger.Initialize(logger.Config{
				Level:       loaded.Logging.Level,
				LogDir:      loaded.Logging.Dir,
				Environment: loaded.Server.AppEnv,
				ServiceName: "mentorhub-migrate",
			}); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			cfg = loaded
			logger.Info("Connecting for migrations", zap.String("database", maskDatabaseURL(cfg.Database.URL)))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&migrationsPath, "path", defaultMigrationsPath, "migrations source URL")

	withMigrator := func(fn func(*db.Migrator) error) error {
		mg, err := db.NewMigrator(database.PoolConfig(cfg.Database), migrationsPath)
		if err != nil {
			logger.Error("Failed to prepare migrations", zap.Error(err))
			return err
		}
		defer mg.Close()
		return fn(mg)
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(mg *db.Migrator) error {
				if err := mg.Up(); err != nil {
					logger.Error("Failed to run migrations", zap.Error(err))
					return err
				}
				logger.Info("Database migrations completed successfully")
				return nil
			})
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(mg *db.Migrator) error {
				if err := mg.Down(steps); err != nil {
					logger.Error("Failed to roll back migrations", zap.Error(err))
					return err
				}
				logger.Info("Rolled back migrations", zap.Int("steps", steps))
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(mg *db.Migrator) error {
				v, dirty, err := mg.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", v, dirty)
				return nil
			})
		},
	}

	root.AddCommand(up, down, version)
	return root
}

// maskDatabaseURL hides the password for logging
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
