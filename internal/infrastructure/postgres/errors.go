package postgres

import (
	"errors"

	"github.com/lib/pq"

	"github.com/sanosuguru/go-calendar-booking/internal/domain/reservation"
)

// PostgreSQL のエラーコード
const (
	codeExclusionViolation = "23P01"
	codeLockNotAvailable   = "55P03"
)

// noOverlapConstraint は同一オーナーの時間帯重複を禁止する排他制約の名前
const noOverlapConstraint = "reservations_owner_no_overlap"

// translateError はストレージのエラーを予約ドメインのエラーに変換する
// 重複禁止の排他制約違反だけは正式な重複検出として ErrOverlapConflict にする
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) &&
		pqErr.Code == codeExclusionViolation &&
		pqErr.Constraint == noOverlapConstraint {
		return reservation.ErrOverlapConflict
	}
	return reservation.NewPersistenceError(op, err)
}

// IsLockTimeout はロック待ちのタイムアウトによるエラーかを返す
func IsLockTimeout(err error) bool {
	var pe *reservation.PersistenceError
	if errors.As(err, &pe) {
		err = pe.Cause()
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeLockNotAvailable
}
