package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sanosuguru/go-calendar-booking/internal/api"
)

// SetupMiddleware は共通ミドルウェアを設定する
func SetupMiddleware(e *echo.Echo) {
	// リクエストID
	e.Use(middleware.RequestID())

	// 構造化リクエストログ（zap）とリクエスト単位のロガー
	e.Use(RequestLogger())

	// パニックリカバリー
	e.Use(middleware.Recover())

	// 予約作成のリクエストは小さいため上限を設ける
	e.Use(middleware.BodyLimit("1M"))

	// CORS
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.POST},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, api.HeaderIdempotencyKey},
	}))
}
