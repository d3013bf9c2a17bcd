package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-calendar-booking/internal/domain/reservation"
	"github.com/sanosuguru/go-calendar-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-calendar-booking/internal/pkg/metrics"
)

// WindowLister は区間と重なる予約を返すインターフェース
type WindowLister interface {
	ListByWindow(ctx context.Context, window reservation.Interval) ([]*reservation.View, error)
}

// UpcomingReservationReporter は現在から horizon 先までの予約数を定期的にゲージへ反映するワーカー
type UpcomingReservationReporter struct {
	lister   WindowLister
	metrics  *metrics.Metrics
	interval time.Duration
	horizon  time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewUpcomingReservationReporter は新しいレポーターを作成
func NewUpcomingReservationReporter(
	lister WindowLister,
	m *metrics.Metrics,
	interval time.Duration,
	horizon time.Duration,
) *UpcomingReservationReporter {
	return &UpcomingReservationReporter{
		lister:   lister,
		metrics:  m,
		interval: interval,
		horizon:  horizon,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start はレポーターを開始し、停止するまでブロックする
func (r *UpcomingReservationReporter) Start(ctx context.Context) {
	logger.Info("予約数レポーター開始",
		zap.Duration("interval", r.interval),
		zap.Duration("horizon", r.horizon),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer close(r.doneCh)

	r.report(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("予約数レポーター停止（コンテキストキャンセル）")
			return
		case <-r.stopCh:
			logger.Info("予約数レポーター停止（シグナル受信）")
			return
		case <-ticker.C:
			r.report(ctx)
		}
	}
}

// Stop はレポーターを停止し、ループの終了を待つ
func (r *UpcomingReservationReporter) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

// report は集計期間内の予約数をゲージに設定する
// 失敗した場合は直前の値を残す
func (r *UpcomingReservationReporter) report(ctx context.Context) {
	log := logger.Get()

	now := r.now().UTC()
	window := reservation.NewInterval(now, now.Add(r.horizon))
	views, err := r.lister.ListByWindow(ctx, window)
	if err != nil {
		log.Error("予約数の集計失敗", zap.Error(err))
		return
	}

	if r.metrics != nil {
		r.metrics.UpcomingReservations.Set(float64(len(views)))
	}
	log.Debug("予約数を集計", zap.Int("count", len(views)))
}
