package reservation

import (
	"context"

	"github.com/sanosuguru/go-calendar-booking/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, reservation *Reservation) error

	// LockOverlapping はオーナーの予約のうち区間と重なるものを排他ロックして返す（トランザクション必須）
	// ロックはトランザクション終了まで保持される
	LockOverlapping(ctx context.Context, tx transaction.Tx, ownerID string, interval Interval) ([]*Reservation, error)

	// Overlaps はロックを取らずに重なる予約があるかを返す
	// excludeID が空でなければその予約は対象外とする
	Overlaps(ctx context.Context, ownerID string, interval Interval, excludeID string) (bool, error)

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*View, error)

	// ListByWindow は区間と重なる予約を開始時刻の昇順で返す
	ListByWindow(ctx context.Context, window Interval) ([]*View, error)
}
