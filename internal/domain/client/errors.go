package client

import "errors"

// Client ドメインのエラー定義
var (
	ErrClientNotFound     = errors.New("クライアントが見つかりません")
	ErrClientNameRequired = errors.New("クライアント名は必須です")
)
