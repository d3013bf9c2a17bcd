package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-calendar-booking/internal/domain/reservation"
	"github.com/sanosuguru/go-calendar-booking/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-calendar-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-calendar-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-calendar-booking/internal/pkg/metrics"
)

// IdempotencyStore は冪等性キーと作成済み予約IDの対応を保持する
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (string, error)
	Save(ctx context.Context, key, reservationID string, ttl time.Duration) error
}

// OverlapChecker は重複の可能性を事前に判定する検証ルール
type OverlapChecker interface {
	// CheckOverlap は重複の可能性があれば reservation.ErrAdvisoryConflict を返す
	CheckOverlap(ctx context.Context, ownerID string, start, end time.Time, excludeID string) error
}

type ReservationService struct {
	txManager       transaction.Manager
	reservationRepo reservation.Repository
	idempotency     IdempotencyStore
	metrics         *metrics.Metrics
	idempotencyTTL  time.Duration
}

// NewReservationService は予約サービスを作成する
// idempotency が nil の場合は冪等性キーを無視する
func NewReservationService(txm transaction.Manager, rr reservation.Repository, idem IdempotencyStore, m *metrics.Metrics, idempotencyTTL time.Duration) *ReservationService {
	return &ReservationService{
		txManager:       txm,
		reservationRepo: rr,
		idempotency:     idem,
		metrics:         m,
		idempotencyTTL:  idempotencyTTL,
	}
}

type CreateReservationInput struct {
	OwnerID        string
	ClientID       string
	Title          string
	Description    *string
	StartAt        time.Time
	EndAt          time.Time
	IdempotencyKey string
}

// CreateReservation はロック付きの重複チェックを経て予約を作成する
//
// 重なる予約があれば reservation.ErrOverlapConflict、
// それ以外のストレージ障害は reservation.ErrPersistenceFailure を返す。
// どちらの場合もトランザクションはロールバックされ、何も書き込まれない。
func (s *ReservationService) CreateReservation(ctx context.Context, input CreateReservationInput) (*reservation.Reservation, error) {
	log := logger.FromContext(ctx)

	if existing, ok := s.ReplayIdempotent(ctx, input.IdempotencyKey); ok {
		return existing.Reservation, nil
	}

	res := reservation.NewReservation(input.OwnerID, input.ClientID, input.Title, input.Description, input.StartAt, input.EndAt)
	if err := res.Validate(); err != nil {
		return nil, err
	}

	err := transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		lockStart := time.Now()
		existing, err := s.reservationRepo.LockOverlapping(ctx, tx, res.OwnerID, res.Interval())
		s.metrics.ObserveLockWait(time.Since(lockStart).Seconds(), err)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return reservation.ErrOverlapConflict
		}
		return s.reservationRepo.Create(ctx, tx, res)
	})
	err = reservation.TranslatePersistence("予約作成", err)

	fields := []zap.Field{
		zap.String("owner_id", res.OwnerID),
		zap.Time("start_at", res.StartAt),
		zap.Time("end_at", res.EndAt),
	}
	switch {
	case err == nil:
	case errors.Is(err, reservation.ErrOverlapConflict):
		log.Info("予約が重複しているため作成しませんでした", fields...)
		s.metrics.RecordReservation(metrics.StatusConflict)
		return nil, err
	default:
		log.Error("予約の永続化に失敗しました", append(fields, zap.Error(causeOf(err)))...)
		s.metrics.RecordReservation(metrics.StatusError)
		return nil, err
	}

	s.metrics.RecordReservation(metrics.StatusSuccess)
	log.Info("予約を作成しました", append(fields, zap.String("reservation_id", res.ID))...)

	if input.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.Save(ctx, input.IdempotencyKey, res.ID, s.idempotencyTTL); err != nil {
			log.Warn("冪等性キーの保存に失敗しました", zap.String("idempotency_key", input.IdempotencyKey), zap.Error(err))
		}
	}
	return res, nil
}

// ReplayIdempotent はキーで作成済みの予約を返す
// キーが空、キーストア未設定、未登録、参照失敗のいずれでも false を返し、呼び出し側は新規作成に進む
func (s *ReservationService) ReplayIdempotent(ctx context.Context, key string) (*reservation.View, bool) {
	if key == "" || s.idempotency == nil {
		return nil, false
	}
	log := logger.FromContext(ctx)
	id, err := s.idempotency.Lookup(ctx, key)
	if err != nil {
		if !errors.Is(err, redisinfra.ErrKeyNotFound) {
			log.Warn("冪等性キーの参照に失敗しました", zap.String("idempotency_key", key), zap.Error(err))
		}
		return nil, false
	}
	view, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		log.Warn("冪等性キーに対応する予約を取得できませんでした",
			zap.String("idempotency_key", key), zap.String("reservation_id", id), zap.Error(err))
		return nil, false
	}
	s.metrics.RecordReservation(metrics.StatusIdempotent)
	log.Info("冪等性キーにより作成済みの予約を返します",
		zap.String("idempotency_key", key), zap.String("reservation_id", id))
	return view, true
}

// AdvisoryOverlap はロックを取らずに重なる予約があるかを返す
// 結果は参考値であり、作成時の判定は CreateReservation が行う
func (s *ReservationService) AdvisoryOverlap(ctx context.Context, ownerID string, start, end time.Time, excludeID string) (bool, error) {
	ok, err := s.reservationRepo.Overlaps(ctx, ownerID, reservation.NewInterval(start, end), excludeID)
	if err != nil {
		return false, reservation.TranslatePersistence("重複予約の確認", err)
	}
	return ok, nil
}

// CheckOverlap は OverlapChecker を実装する
func (s *ReservationService) CheckOverlap(ctx context.Context, ownerID string, start, end time.Time, excludeID string) error {
	ok, err := s.AdvisoryOverlap(ctx, ownerID, start, end, excludeID)
	if err != nil {
		return err
	}
	if ok {
		s.metrics.RecordReservation(metrics.StatusAdvisoryConflict)
		return reservation.ErrAdvisoryConflict
	}
	return nil
}

// ListByWindow は区間と重なる予約を開始時刻の昇順で返す
func (s *ReservationService) ListByWindow(ctx context.Context, window reservation.Interval) ([]*reservation.View, error) {
	views, err := s.reservationRepo.ListByWindow(ctx, window)
	if err != nil {
		return nil, reservation.TranslatePersistence("予約一覧取得", err)
	}
	return views, nil
}

// ListWeek は day を含む暦週の予約と、その週の区間を返す
func (s *ReservationService) ListWeek(ctx context.Context, day time.Time) ([]*reservation.View, reservation.Interval, error) {
	week := reservation.WeekOf(day)
	views, err := s.ListByWindow(ctx, week)
	if err != nil {
		return nil, week, err
	}
	return views, week, nil
}

func (s *ReservationService) GetReservation(ctx context.Context, id string) (*reservation.View, error) {
	view, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservation.ErrReservationNotFound) {
			return nil, err
		}
		return nil, reservation.TranslatePersistence("予約取得", err)
	}
	return view, nil
}

func causeOf(err error) error {
	var pe *reservation.PersistenceError
	if errors.As(err, &pe) && pe.Cause() != nil {
		return pe.Cause()
	}
	return err
}

var _ OverlapChecker = (*ReservationService)(nil)
