package owner

import "errors"

// Owner ドメインのエラー定義
var (
	ErrOwnerNotFound     = errors.New("オーナーが見つかりません")
	ErrOwnerNameRequired = errors.New("オーナー名は必須です")
)
