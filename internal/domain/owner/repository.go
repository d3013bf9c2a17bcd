package owner

import "context"

// Repository はオーナーリポジトリのインターフェース
type Repository interface {
	Create(ctx context.Context, o *Owner) error
	GetByID(ctx context.Context, id string) (*Owner, error)
	List(ctx context.Context) ([]*Owner, error)
}
