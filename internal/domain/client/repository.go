package client

import "context"

// Repository はクライアントリポジトリのインターフェース
type Repository interface {
	Create(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, id string) (*Client, error)
	List(ctx context.Context) ([]*Client, error)
}
