package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 予約作成の結果ラベル
const (
	StatusSuccess          = "success"
	StatusConflict         = "conflict"
	StatusAdvisoryConflict = "advisory_conflict"
	StatusIdempotent       = "idempotent"
	StatusError            = "error"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 予約作成の総数（status: success, conflict, advisory_conflict, idempotent, error）
	ReservationsTotal *prometheus.CounterVec

	// 重複候補の行ロック取得にかかった時間（status: success/failed）
	LockWaitDuration *prometheus.HistogramVec

	// 集計対象期間内の予約数
	UpcomingReservations prometheus.Gauge
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ReservationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservations_total",
				Help: "Total number of reservation attempts by outcome",
			},
			[]string{"status"},
		),
		LockWaitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reservation_lock_wait_seconds",
				Help:    "Time spent locking overlapping reservations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"status"},
		),
		UpcomingReservations: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "upcoming_reservations",
				Help: "Number of reservations overlapping the reporting horizon",
			},
		),
	}

	// レジストリに登録
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ReservationsTotal,
		m.LockWaitDuration,
		m.UpcomingReservations,
	)

	return m
}

// RecordReservation は予約作成の結果を記録する（nil でも安全）
func (m *Metrics) RecordReservation(status string) {
	if m == nil {
		return
	}
	m.ReservationsTotal.WithLabelValues(status).Inc()
}

// ObserveLockWait はロック取得時間を記録する（nil でも安全）
func (m *Metrics) ObserveLockWait(seconds float64, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.LockWaitDuration.WithLabelValues(status).Observe(seconds)
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
func Get() *Metrics {
	return defaultMetrics
}
