package client

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client は予約の相手先を表す（重複判定には使わない）
type Client struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// NewClient は新しいクライアントを作成する
func NewClient(name string) *Client {
	return &Client{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now(),
	}
}

// Validate はクライアントの検証を行う
func (c *Client) Validate() error {
	if c.Name == "" {
		return ErrClientNameRequired
	}
	return nil
}
