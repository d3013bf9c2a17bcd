package reservation

import (
	"errors"
	"fmt"
)

// OverlapMessage は重複時に利用者へ返す固定メッセージ
// 下流のクライアントが文字列一致で判定するため変更しないこと
const OverlapMessage = "この予約は選択されたオーナーの別の予約と重複しています"

// Reservation ドメインのエラー定義
var (
	ErrReservationNotFound = errors.New("予約が見つかりません")
	ErrOwnerIDRequired     = errors.New("オーナーIDは必須です")
	ErrClientIDRequired    = errors.New("クライアントIDは必須です")
	ErrTitleRequired       = errors.New("タイトルは必須です")
	ErrInvalidInterval     = errors.New("終了時刻は開始時刻より後である必要があります")

	// ErrOverlapConflict はロック付きの正式チェックで重複が見つかったことを表す
	ErrOverlapConflict = errors.New(OverlapMessage)
	// ErrAdvisoryConflict はロックなしの事前チェックで重複の可能性が見つかったことを表す
	ErrAdvisoryConflict = errors.New(OverlapMessage + "（事前チェック）")
	// ErrPersistenceFailure は重複以外のストレージ障害をまとめた種別
	ErrPersistenceFailure = errors.New("予約の永続化に失敗しました")
)

// PersistenceError はストレージ層の障害をドメインのエラーとして包む
// errors.Is(err, ErrPersistenceFailure) で判定でき、原因は Cause で取り出す
type PersistenceError struct {
	Op    string
	cause error
}

// NewPersistenceError は PersistenceError を作成する
func NewPersistenceError(op string, cause error) *PersistenceError {
	return &PersistenceError{Op: op, cause: cause}
}

func (e *PersistenceError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", ErrPersistenceFailure.Error(), e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", ErrPersistenceFailure.Error(), e.Op, e.cause)
}

// Unwrap はストレージ固有のエラー型を呼び出し側に漏らさないよう種別だけを返す
func (e *PersistenceError) Unwrap() error {
	return ErrPersistenceFailure
}

// Cause は診断用に元のエラーを返す
func (e *PersistenceError) Cause() error {
	return e.cause
}

// TranslatePersistence は重複以外のエラーを PersistenceError に変換する
// 既にドメインの種別になっているエラーはそのまま返す
func TranslatePersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrOverlapConflict) || errors.Is(err, ErrPersistenceFailure) {
		return err
	}
	return NewPersistenceError(op, err)
}
