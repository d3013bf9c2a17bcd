package api

// HeaderIdempotencyKey は予約作成の冪等性キーを運ぶヘッダー
const HeaderIdempotencyKey = "Idempotency-Key"
