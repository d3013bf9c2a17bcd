package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-calendar-booking/internal/api/handler"
	"github.com/sanosuguru/go-calendar-booking/internal/config"
	"github.com/sanosuguru/go-calendar-booking/internal/domain/client"
	"github.com/sanosuguru/go-calendar-booking/internal/domain/owner"
	"github.com/sanosuguru/go-calendar-booking/internal/domain/reservation"
	"github.com/sanosuguru/go-calendar-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-calendar-booking/internal/infrastructure/memory"
	"github.com/sanosuguru/go-calendar-booking/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-calendar-booking/internal/pkg/logger"
)

// storage は選択したドライバーのリポジトリ一式
type storage struct {
	txManager    transaction.Manager
	reservations reservation.Repository
	owners       owner.Repository
	clients      client.Repository
	checks       map[string]handler.HealthCheck
	close        func()
}

// openStorage は設定に応じてストレージを初期化する
// autoMigrate が true の場合は PostgreSQL のマイグレーションを適用する
func openStorage(cfg *config.Config, autoMigrate bool) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		logger.Warn("メモリストレージで起動します（プロセス終了で予約は失われます）")
		store := memory.NewStore()
		return &storage{
			txManager:    memory.NewTxManager(store),
			reservations: memory.NewReservationRepository(store),
			owners:       memory.NewOwnerRepository(store),
			clients:      memory.NewClientRepository(store),
			checks:       map[string]handler.HealthCheck{},
			close:        func() {},
		}, nil
	case config.StorageDriverPostgres:
		db, err := openDatabase(cfg, autoMigrate)
		if err != nil {
			return nil, err
		}
		return &storage{
			txManager:    postgres.NewTxManager(db, cfg.Database.LockTimeout),
			reservations: postgres.NewReservationRepository(db),
			owners:       postgres.NewOwnerRepository(db),
			clients:      postgres.NewClientRepository(db),
			checks: map[string]handler.HealthCheck{
				"database": func(ctx context.Context) error { return postgres.Ping(ctx, db) },
			},
			close: func() {
				if err := db.Close(); err != nil {
					logger.Error("DB切断エラー", zap.Error(err))
				}
			},
		}, nil
	default:
		return nil, fmt.Errorf("不明なストレージドライバーです: %s", cfg.Storage.Driver)
	}
}

func openDatabase(cfg *config.Config, migrate bool) (*sqlx.DB, error) {
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("DB接続エラー: %w", err)
	}
	logger.Info("DB接続完了",
		zap.String("host", cfg.Database.Host),
		zap.String("dbname", cfg.Database.DBName),
	)

	if migrate {
		if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
			db.Close()
			return nil, fmt.Errorf("マイグレーションエラー: %w", err)
		}
		logger.Info("マイグレーション適用完了", zap.String("path", cfg.Database.MigrationsPath))
	}
	return db, nil
}
