package memory

import (
	"context"
	"sort"

	"github.com/sanosuguru/go-calendar-booking/internal/domain/reservation"
	"github.com/sanosuguru/go-calendar-booking/internal/domain/transaction"
)

// ReservationRepository はストア上の予約リポジトリ
type ReservationRepository struct {
	store *Store
}

func NewReservationRepository(store *Store) *ReservationRepository {
	return &ReservationRepository{store: store}
}

// Create は予約をトランザクションに追加する
// オーナーとクライアントが存在しない場合は永続化エラー、
// 確定済みまたは同じトランザクション内の予約と重なる場合は ErrOverlapConflict を返す
func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	s := r.store
	mt, err := s.unwrap(tx)
	if err != nil {
		return reservation.NewPersistenceError("予約作成", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if mt.done {
		return reservation.NewPersistenceError("予約作成", ErrTxDone)
	}
	if _, ok := s.owners[res.OwnerID]; !ok {
		return reservation.NewPersistenceError("予約作成", errMissingOwner)
	}
	if _, ok := s.clients[res.ClientID]; !ok {
		return reservation.NewPersistenceError("予約作成", errMissingClient)
	}
	if len(s.overlappingLocked(res.OwnerID, res.Interval(), "")) > 0 {
		return reservation.ErrOverlapConflict
	}
	for _, p := range mt.pending {
		if p.Overlaps(res) {
			return reservation.ErrOverlapConflict
		}
	}
	stored := *res
	mt.pending = append(mt.pending, &stored)
	return nil
}

// LockOverlapping は区間ロックを取得してから重なる確定済み予約を返す
func (r *ReservationRepository) LockOverlapping(ctx context.Context, tx transaction.Tx, ownerID string, interval reservation.Interval) ([]*reservation.Reservation, error) {
	s := r.store
	mt, err := s.unwrap(tx)
	if err != nil {
		return nil, reservation.NewPersistenceError("重複予約のロック", err)
	}
	if err := s.acquire(ctx, mt, ownerID, interval); err != nil {
		return nil, reservation.NewPersistenceError("重複予約のロック", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	found := s.overlappingLocked(ownerID, interval, "")
	result := make([]*reservation.Reservation, len(found))
	for i, f := range found {
		c := *f
		result[i] = &c
	}
	sortReservations(result)
	return result, nil
}

func (r *ReservationRepository) Overlaps(ctx context.Context, ownerID string, interval reservation.Interval, excludeID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, reservation.NewPersistenceError("重複予約の確認", err)
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.overlappingLocked(ownerID, interval, excludeID)) > 0, nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*reservation.View, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[id]
	if !ok {
		return nil, reservation.ErrReservationNotFound
	}
	return s.viewLocked(res), nil
}

func (r *ReservationRepository) ListByWindow(ctx context.Context, window reservation.Interval) ([]*reservation.View, error) {
	if err := ctx.Err(); err != nil {
		return nil, reservation.NewPersistenceError("予約一覧取得", err)
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*reservation.Reservation
	for _, res := range s.reservations {
		if res.Interval().Overlaps(window) {
			matched = append(matched, res)
		}
	}
	sortReservations(matched)

	views := make([]*reservation.View, len(matched))
	for i, res := range matched {
		views[i] = s.viewLocked(res)
	}
	return views, nil
}

func (s *Store) viewLocked(res *reservation.Reservation) *reservation.View {
	c := *res
	v := &reservation.View{Reservation: &c}
	if o, ok := s.owners[res.OwnerID]; ok {
		v.OwnerName = o.Name
	}
	if cl, ok := s.clients[res.ClientID]; ok {
		v.ClientName = cl.Name
	}
	return v
}

func sortReservations(rs []*reservation.Reservation) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].StartAt.Equal(rs[j].StartAt) {
			return rs[i].ID < rs[j].ID
		}
		return rs[i].StartAt.Before(rs[j].StartAt)
	})
}

var _ reservation.Repository = (*ReservationRepository)(nil)
