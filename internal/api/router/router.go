package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanosuguru/go-calendar-booking/internal/api"
	"github.com/sanosuguru/go-calendar-booking/internal/api/handler"
	"github.com/sanosuguru/go-calendar-booking/internal/api/middleware"
	"github.com/sanosuguru/go-calendar-booking/internal/config"
	"github.com/sanosuguru/go-calendar-booking/internal/pkg/metrics"
)

// Handlers はルーティング対象のハンドラー一式
type Handlers struct {
	Reservation *handler.ReservationHandler
	Directory   *handler.DirectoryHandler
	Health      *handler.HealthHandler
}

// Options はルーター構築時の設定
type Options struct {
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	MetricsConfig config.MetricsConfig
}

// New は全ルートを登録したEchoインスタンスを作成する
func New(h Handlers, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	middleware.SetupMiddleware(e)
	e.Use(middleware.PrometheusMiddleware(opts.Metrics))

	e.GET("/health", h.Health.Check)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})),
		middleware.MetricsBasicAuth(opts.MetricsConfig))

	v1 := e.Group("/api/v1")
	v1.POST("/reservations", h.Reservation.Create)
	v1.GET("/reservations", h.Reservation.ListWeek)
	v1.GET("/reservations/:id", h.Reservation.GetByID)
	v1.GET("/owners", h.Directory.ListOwners)
	v1.GET("/clients", h.Directory.ListClients)

	return e
}
