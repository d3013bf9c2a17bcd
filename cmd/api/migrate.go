package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-calendar-booking/internal/config"
	"github.com/sanosuguru/go-calendar-booking/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-calendar-booking/internal/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "PostgreSQL のマイグレーションを適用する",
	Long: `migrate は MIGRATIONS_PATH のマイグレーションを適用します。

--down を指定した場合は指定したステップ数だけロールバックします。`,
	RunE: runMigrate,
}

var migrateDown int

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().IntVar(&migrateDown, "down", 0, "ロールバックするステップ数")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log := logger.Init(cfg.Env)
	defer log.Sync()

	if migrateDown < 0 {
		return fmt.Errorf("--down は0以上である必要があります: %d", migrateDown)
	}

	db, err := openDatabase(cfg, false)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrateDown > 0 {
		if err := postgres.RollbackMigrations(db.DB, cfg.Database.MigrationsPath, migrateDown); err != nil {
			return fmt.Errorf("ロールバックエラー: %w", err)
		}
		log.Info("マイグレーションをロールバックしました", zap.Int("steps", migrateDown))
		return nil
	}

	if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
		return fmt.Errorf("マイグレーションエラー: %w", err)
	}
	log.Info("マイグレーション適用完了", zap.String("path", cfg.Database.MigrationsPath))
	return nil
}
