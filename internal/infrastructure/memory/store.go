// Package memory はプロセス内で完結するストレージ実装を提供する
// 開発環境と並行性テストで PostgreSQL の代わりに使う
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/sanosuguru/go-calendar-booking/internal/domain/client"
	"github.com/sanosuguru/go-calendar-booking/internal/domain/owner"
	"github.com/sanosuguru/go-calendar-booking/internal/domain/reservation"
	"github.com/sanosuguru/go-calendar-booking/internal/domain/transaction"
)

var (
	// ErrTxDone は終了済みのトランザクションを使おうとしたことを表す
	ErrTxDone = errors.New("memory: トランザクションは既に終了しています")
	// ErrForeignTx は別実装のトランザクションが渡されたことを表す
	ErrForeignTx = errors.New("memory: このストアのトランザクションではありません")
)

// Store は予約・オーナー・クライアントを保持する共有ストア
//
// 予約の重複チェック用に「オーナー×時間帯」の述語ロックを持つ。
// 重なる区間のロックを別のトランザクションが保持している間は取得を待ち、
// ロックはトランザクションの終了時に解放される。
type Store struct {
	mu           sync.Mutex
	reservations map[string]*reservation.Reservation
	owners       map[string]*owner.Owner
	clients      map[string]*client.Client

	locks []intervalLock
	// released はロック解放のたびに close して作り直す
	released chan struct{}
}

type intervalLock struct {
	tx       *Tx
	ownerID  string
	interval reservation.Interval
}

// NewStore は空のストアを作成する
func NewStore() *Store {
	return &Store{
		reservations: make(map[string]*reservation.Reservation),
		owners:       make(map[string]*owner.Owner),
		clients:      make(map[string]*client.Client),
		released:     make(chan struct{}),
	}
}

// acquire は重なるロックが無くなるまで待ってから区間ロックを取得する
// ctx がキャンセルされた場合は待機をやめてエラーを返す
func (s *Store) acquire(ctx context.Context, tx *Tx, ownerID string, iv reservation.Interval) error {
	for {
		s.mu.Lock()
		if tx.done {
			s.mu.Unlock()
			return ErrTxDone
		}
		if !s.lockedByOthers(tx, ownerID, iv) {
			s.locks = append(s.locks, intervalLock{tx: tx, ownerID: ownerID, interval: iv})
			s.mu.Unlock()
			return nil
		}
		wait := s.released
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wait:
		}
	}
}

func (s *Store) lockedByOthers(tx *Tx, ownerID string, iv reservation.Interval) bool {
	for _, l := range s.locks {
		if l.tx != tx && l.ownerID == ownerID && l.interval.Overlaps(iv) {
			return true
		}
	}
	return false
}

// releaseLocked は tx のロックを外して待機者を起こす。s.mu を保持して呼ぶこと
func (s *Store) releaseLocked(tx *Tx) {
	kept := s.locks[:0]
	freed := false
	for _, l := range s.locks {
		if l.tx == tx {
			freed = true
			continue
		}
		kept = append(kept, l)
	}
	s.locks = kept
	if freed {
		close(s.released)
		s.released = make(chan struct{})
	}
}

// overlappingLocked は確定済みの予約のうち重なるものを返す。s.mu を保持して呼ぶこと
func (s *Store) overlappingLocked(ownerID string, iv reservation.Interval, excludeID string) []*reservation.Reservation {
	var result []*reservation.Reservation
	for _, r := range s.reservations {
		if r.OwnerID != ownerID || r.ID == excludeID {
			continue
		}
		if r.Interval().Overlaps(iv) {
			result = append(result, r)
		}
	}
	return result
}

// Tx はストアに対するトランザクション
// 作成した予約はコミットまで他から見えない
type Tx struct {
	store   *Store
	pending []*reservation.Reservation
	done    bool
}

// Commit は保留中の予約を公開してロックを解放する
// 公開直前にも重複を確認し、重なる予約があれば何も書き込まずに ErrOverlapConflict を返す
func (t *Tx) Commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.done {
		return ErrTxDone
	}
	t.done = true
	defer s.releaseLocked(t)

	for _, r := range t.pending {
		if len(s.overlappingLocked(r.OwnerID, r.Interval(), "")) > 0 {
			t.pending = nil
			return reservation.ErrOverlapConflict
		}
	}
	for _, r := range t.pending {
		s.reservations[r.ID] = r
	}
	t.pending = nil
	return nil
}

// Rollback は保留中の予約を破棄してロックを解放する
// 終了済みのトランザクションに対しては何もしない
func (t *Tx) Rollback() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	t.pending = nil
	s.releaseLocked(t)
	return nil
}

// TxManager はストアのトランザクションを開始する
type TxManager struct {
	store *Store
}

func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

func (m *TxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{store: m.store}, nil
}

func (s *Store) unwrap(tx transaction.Tx) (*Tx, error) {
	mt, ok := tx.(*Tx)
	if !ok || mt == nil || mt.store != s {
		return nil, ErrForeignTx
	}
	return mt, nil
}

var _ transaction.Manager = (*TxManager)(nil)
