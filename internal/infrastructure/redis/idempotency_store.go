package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrKeyNotFound = errors.New("冪等性キーが見つかりません")
)

// IdempotencyStore は冪等性キーと作成済み予約IDの対応を保持する
type IdempotencyStore struct {
	client *redis.Client
}

// NewIdempotencyStore は新しいIdempotencyStoreインスタンスを作成する
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Lookup はキーに対応する予約IDを返す
func (s *IdempotencyStore) Lookup(ctx context.Context, key string) (string, error) {
	id, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("冪等性キー取得に失敗: %w", err)
	}
	return id, nil
}

// Save はキーと予約IDの対応を保存する
// 既にキーがある場合は先に保存された値を残す
func (s *IdempotencyStore) Save(ctx context.Context, key, reservationID string, ttl time.Duration) error {
	if err := s.client.SetNX(ctx, s.key(key), reservationID, ttl).Err(); err != nil {
		return fmt.Errorf("冪等性キー保存に失敗: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(key string) string {
	return fmt.Sprintf("idempotency:%s", key)
}
