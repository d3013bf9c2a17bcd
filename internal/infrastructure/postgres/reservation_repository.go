package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-calendar-booking/internal/domain/reservation"
	"github.com/sanosuguru/go-calendar-booking/internal/domain/transaction"
)

type reservationRow struct {
	ID          string         `db:"id"`
	OwnerID     string         `db:"owner_id"`
	ClientID    string         `db:"client_id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	StartAt     time.Time      `db:"start_at"`
	EndAt       time.Time      `db:"end_at"`
	CreatedAt   time.Time      `db:"created_at"`
}

type reservationViewRow struct {
	reservationRow
	OwnerName  string `db:"owner_name"`
	ClientName string `db:"client_name"`
}

const reservationColumns = `r.id, r.owner_id, r.client_id, r.title, r.description, r.start_at, r.end_at, r.created_at`

const reservationViewSelect = `SELECT ` + reservationColumns + `, o.name AS owner_name, c.name AS client_name
	FROM reservations r
	JOIN owners o ON o.id = r.owner_id
	JOIN clients c ON c.id = r.client_id`

// ReservationRepository は PostgreSQL による予約リポジトリ
type ReservationRepository struct{ db *sqlx.DB }

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return reservation.NewPersistenceError("予約作成", err)
	}
	query := `INSERT INTO reservations (id, owner_id, client_id, title, description, start_at, end_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := sqlTx.ExecContext(ctx, query,
		res.ID, res.OwnerID, res.ClientID, res.Title, res.Description,
		res.StartAt.UTC(), res.EndAt.UTC(), res.CreatedAt.UTC(),
	); err != nil {
		return translateError("予約作成", err)
	}
	return nil
}

// LockOverlapping は区間と重なる同一オーナーの予約を FOR UPDATE で取得する
// オーナー行までロックしないよう結合はしない
func (r *ReservationRepository) LockOverlapping(ctx context.Context, tx transaction.Tx, ownerID string, interval reservation.Interval) ([]*reservation.Reservation, error) {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return nil, reservation.NewPersistenceError("重複予約のロック", err)
	}
	var rows []reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations r
		WHERE r.owner_id = $1 AND r.start_at < $3 AND r.end_at > $2
		ORDER BY r.start_at
		FOR UPDATE`
	if err := sqlTx.SelectContext(ctx, &rows, query, ownerID, interval.Start.UTC(), interval.End.UTC()); err != nil {
		return nil, translateError("重複予約のロック", err)
	}
	result := make([]*reservation.Reservation, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

func (r *ReservationRepository) Overlaps(ctx context.Context, ownerID string, interval reservation.Interval, excludeID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM reservations
		WHERE owner_id = $1 AND start_at < $3 AND end_at > $2`
	args := []any{ownerID, interval.Start.UTC(), interval.End.UTC()}
	if excludeID != "" {
		if _, err := uuid.Parse(excludeID); err == nil {
			query += ` AND id <> $4`
			args = append(args, excludeID)
		}
	}
	query += `)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, translateError("重複予約の確認", err)
	}
	return exists, nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*reservation.View, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, reservation.ErrReservationNotFound
	}
	var row reservationViewRow
	if err := r.db.GetContext(ctx, &row, reservationViewSelect+` WHERE r.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, translateError("予約取得", err)
	}
	return row.toView(), nil
}

func (r *ReservationRepository) ListByWindow(ctx context.Context, window reservation.Interval) ([]*reservation.View, error) {
	var rows []reservationViewRow
	query := reservationViewSelect + ` WHERE r.start_at < $2 AND r.end_at > $1 ORDER BY r.start_at, r.id`
	if err := r.db.SelectContext(ctx, &rows, query, window.Start.UTC(), window.End.UTC()); err != nil {
		return nil, translateError("予約一覧取得", err)
	}
	result := make([]*reservation.View, len(rows))
	for i := range rows {
		result[i] = rows[i].toView()
	}
	return result, nil
}

func (row *reservationRow) toEntity() *reservation.Reservation {
	res := &reservation.Reservation{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		ClientID:  row.ClientID,
		Title:     row.Title,
		StartAt:   row.StartAt.UTC(),
		EndAt:     row.EndAt.UTC(),
		CreatedAt: row.CreatedAt.UTC(),
	}
	if row.Description.Valid {
		d := row.Description.String
		res.Description = &d
	}
	return res
}

func (row *reservationViewRow) toView() *reservation.View {
	return &reservation.View{
		Reservation: row.reservationRow.toEntity(),
		OwnerName:   row.OwnerName,
		ClientName:  row.ClientName,
	}
}

var _ reservation.Repository = (*ReservationRepository)(nil)
