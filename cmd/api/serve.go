package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sanosuguru/go-calendar-booking/internal/api/handler"
	"github.com/sanosuguru/go-calendar-booking/internal/api/router"
	"github.com/sanosuguru/go-calendar-booking/internal/application"
	"github.com/sanosuguru/go-calendar-booking/internal/config"
	redisinfra "github.com/sanosuguru/go-calendar-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-calendar-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-calendar-booking/internal/pkg/metrics"
	"github.com/sanosuguru/go-calendar-booking/internal/worker"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "HTTPサーバーと予約数レポーターを起動する",
	RunE:  runServe,
}

var (
	serveAutoMigrate bool
	serveOwners      []string
	serveClients     []string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	registerServeFlags(serveCmd)
}

func registerServeFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&serveAutoMigrate, "auto-migrate", false, "起動時にマイグレーションを適用する（postgres のみ）")
	cmd.Flags().StringSliceVar(&serveOwners, "owner", nil, "起動時に登録するオーナー名（複数指定可）")
	cmd.Flags().StringSliceVar(&serveClients, "client", nil, "起動時に登録するクライアント名（複数指定可）")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.Init(cfg.Env)
	defer log.Sync()

	m := metrics.Init()

	store, err := openStorage(cfg, serveAutoMigrate)
	if err != nil {
		log.Error("ストレージ初期化エラー", zap.Error(err))
		return err
	}
	defer store.close()

	var idempotency application.IdempotencyStore
	if cfg.Redis.Enabled() {
		rc, err := redisinfra.NewClient(&cfg.Redis)
		if err != nil {
			// 冪等性キーは補助機能のため Redis なしでも起動する
			log.Warn("Redis接続エラー（冪等性キーを無効化）", zap.Error(err))
		} else {
			defer rc.Close()
			idempotency = redisinfra.NewIdempotencyStore(rc)
			store.checks["redis"] = func(ctx context.Context) error { return redisinfra.Ping(ctx, rc) }
			log.Info("Redis接続完了", zap.String("addr", cfg.Redis.Addr()))
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	directoryService := application.NewDirectoryService(store.owners, store.clients)
	if err := seedParties(ctx, directoryService, serveOwners, serveClients); err != nil {
		return err
	}
	reservationService := application.NewReservationService(store.txManager, store.reservations, idempotency, m, cfg.Idempotency.TTL)

	e := router.New(router.Handlers{
		Reservation: handler.NewReservationHandler(reservationService, directoryService),
		Directory:   handler.NewDirectoryHandler(directoryService),
		Health:      handler.NewHealthHandler(store.checks),
	}, router.Options{
		Metrics:       m,
		Gatherer:      prometheus.DefaultGatherer,
		MetricsConfig: cfg.Metrics,
	})
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	reporter := worker.NewUpcomingReservationReporter(reservationService, m, cfg.Reporter.Interval, cfg.Reporter.Horizon)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("サーバー起動", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Driver))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		reporter.Start(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("サーバーをシャットダウンしています...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("サーバー停止エラー", zap.Error(err))
		return err
	}
	log.Info("サーバーが正常にシャットダウンしました")
	return nil
}
