package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/role-permission-api/db"
	"github.com/frahmantamala/role-permission-api/pkg/logger"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run db migration files under db/migrations directory",
	}
	migrateRollback bool
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "", "sql migrations directory on disk (defaults to the migrations built into the binary)")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	conn, err := initDB(cfg.Database)
	if err != nil {
		return err
	}
	defer conn.Close()

	dir := migrateDir
	if dir == "" {
		goose.SetBaseFS(db.EmbedMigrations)
		dir = db.MigrationsDir
	}
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}

	if migrateRollback {
		if err := goose.DownContext(ctx, conn.DB, dir); err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
		lg.Info("rolled back latest migration", "dir", dir)
		return nil
	}

	if err := goose.UpContext(ctx, conn.DB, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	lg.Info("migrations applied", "dir", dir)
	return nil
}
