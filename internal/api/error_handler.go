package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-calendar-booking/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// ValidationErrorResponse はフィールド単位の検証エラーのフォーマット
type ValidationErrorResponse struct {
	Errors FieldErrors `json:"errors"`
}

// FieldErrors はフィールド名ごとのエラーメッセージ
type FieldErrors map[string][]string

// Add はフィールドにメッセージを追加する
func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// NewValidationError はフィールドエラーを 422 の HTTPError にする
func NewValidationError(fields FieldErrors) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnprocessableEntity, fields)
}

// NewFieldError は単一フィールドのエラーを 422 の HTTPError にする
func NewFieldError(field, message string) *echo.HTTPError {
	fe := FieldErrors{}
	fe.Add(field, message)
	return NewValidationError(fe)
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		code    = http.StatusInternalServerError
		message = "内部サーバーエラー"
	)

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		switch m := he.Message.(type) {
		case FieldErrors:
			if err := c.JSON(code, ValidationErrorResponse{Errors: m}); err != nil {
				logger.Error("エラーレスポンス送信失敗", zap.Error(err))
			}
			return
		case string:
			message = m
		default:
			message = http.StatusText(code)
		}
	}

	// エラーログを出力（5xx エラーの場合）
	if code >= 500 {
		logger.FromContext(c.Request().Context()).Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	if err := c.JSON(code, ErrorResponse{
		Error: message,
		Code:  code,
	}); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}
