package reservation

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reservation は予約エンティティを表す
// 作成後は変更されない
type Reservation struct {
	ID          string
	OwnerID     string
	ClientID    string
	Title       string
	Description *string
	StartAt     time.Time
	EndAt       time.Time
	CreatedAt   time.Time
}

// View は一覧表示用にオーナー名とクライアント名を付けた予約
type View struct {
	*Reservation
	OwnerName  string
	ClientName string
}

// NewReservation は新しい予約を作成する
// タイトルと説明の前後の空白は取り除き、空の説明は nil として扱う
func NewReservation(ownerID, clientID, title string, description *string, startAt, endAt time.Time) *Reservation {
	var desc *string
	if description != nil {
		if d := strings.TrimSpace(*description); d != "" {
			desc = &d
		}
	}
	return &Reservation{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		ClientID:    clientID,
		Title:       strings.TrimSpace(title),
		Description: desc,
		StartAt:     startAt,
		EndAt:       endAt,
		CreatedAt:   time.Now(),
	}
}

// Interval は予約の時間帯を返す
func (r *Reservation) Interval() Interval {
	return Interval{Start: r.StartAt, End: r.EndAt}
}

// Overlaps は同じオーナーで時間帯が重なるかを返す
func (r *Reservation) Overlaps(other *Reservation) bool {
	return r.OwnerID == other.OwnerID && r.Interval().Overlaps(other.Interval())
}

// Validate は予約の検証を行う
func (r *Reservation) Validate() error {
	if r.OwnerID == "" {
		return ErrOwnerIDRequired
	}
	if r.ClientID == "" {
		return ErrClientIDRequired
	}
	if r.Title == "" {
		return ErrTitleRequired
	}
	if !r.Interval().IsValid() {
		return ErrInvalidInterval
	}
	return nil
}
