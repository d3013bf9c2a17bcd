package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-calendar-booking/internal/domain/transaction"
)

// ErrForeignTx は別実装のトランザクションが渡されたことを表す
var ErrForeignTx = errors.New("PostgreSQLのトランザクションではありません")

// TxWrapper は sqlx.Tx を transaction.Tx インターフェースでラップする
type TxWrapper struct {
	*sqlx.Tx
}

// Commit はトランザクションをコミットする
func (t *TxWrapper) Commit() error {
	return t.Tx.Commit()
}

// Rollback はトランザクションをロールバックする
// コミット済みの場合の sql.ErrTxDone は呼び出し側で無視してよい
func (t *TxWrapper) Rollback() error {
	return t.Tx.Rollback()
}

// TxManager は sqlx.DB を使用したトランザクションマネージャー
type TxManager struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

// NewTxManager は新しい TxManager を作成する
// lockTimeout が正の場合、各トランザクションの行ロック待ちをその時間で打ち切る
func NewTxManager(db *sqlx.DB, lockTimeout time.Duration) *TxManager {
	return &TxManager{db: db, lockTimeout: lockTimeout}
}

// Begin は新しいトランザクションを開始する
func (m *TxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	if m.lockTimeout > 0 {
		// SET はプレースホルダを受け付けないため整数（ミリ秒）を埋め込む
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", lockTimeoutMillis(m.lockTimeout))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("ロック待ち時間の設定に失敗: %w", err)
		}
	}
	return &TxWrapper{Tx: tx}, nil
}

// lockTimeoutMillis は lock_timeout に渡すミリ秒を返す
// 0 は PostgreSQL では無制限を意味するため、1ms 未満の端数は切り上げる
func lockTimeoutMillis(d time.Duration) int64 {
	ms := d / time.Millisecond
	if d%time.Millisecond != 0 {
		ms++
	}
	return int64(ms)
}

// UnwrapTx は transaction.Tx から sqlx.Tx を取り出す
// リポジトリ実装で使用する
func UnwrapTx(tx transaction.Tx) (*sqlx.Tx, error) {
	if wrapper, ok := tx.(*TxWrapper); ok && wrapper.Tx != nil {
		return wrapper.Tx, nil
	}
	return nil, ErrForeignTx
}

var _ transaction.Manager = (*TxManager)(nil)
