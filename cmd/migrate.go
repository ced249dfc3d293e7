package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/access-control/db"
	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/pkg/logger"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run the embedded db migrations",
		Long: `Runs the embedded goose migrations against postgres. With the sqlite
driver every store bootstraps its own tables instead.`,
	}
	migrateRollback bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger.Init(cfg.Logging.Format, cfg.Logging.Level)
	lg := logger.LoggerWrapper()

	if cfg.Database.Driver == internal.DriverSQLite {
		sqlDB, gormDB, err := initDB(cfg.Database)
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		if err := newStores(gormDB, lg).EnsureTables(ctx); err != nil {
			return err
		}
		lg.Info("sqlite tables ensured")
		return nil
	}

	conn, err := goose.OpenDBWithDriver("pgx", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("goose: failed to open DB: %w", err)
	}
	defer conn.Close()

	goose.SetBaseFS(db.Migrations)
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	direction := "up"
	if migrateRollback {
		direction = "down"
	}
	if err := goose.RunContext(ctx, direction, conn, db.MigrationsDir); err != nil {
		return fmt.Errorf("goose %s: %w", direction, err)
	}
	lg.Info("migrations applied", "direction", direction)
	return nil
}
