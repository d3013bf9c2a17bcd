package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// CustomValidator はEcho用のカスタムバリデーター
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator は新しいバリデーターを作成する
// エラーのフィールド名には json タグの名前を使う
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate はリクエストのバリデーションを実行する
// 失敗した場合はフィールドごとのメッセージを持つ 422 を返す
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	fields := FieldErrors{}
	for _, fe := range verrs {
		fields.Add(fe.Field(), messageFor(fe))
	}
	return NewValidationError(fields)
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s は必須です", fe.Field())
	case "max":
		return fmt.Sprintf("%s は%s文字以内で入力してください", fe.Field(), fe.Param())
	case "uuid":
		return fmt.Sprintf("%s の形式が不正です", fe.Field())
	default:
		return fmt.Sprintf("%s が不正です（%s）", fe.Field(), fe.Tag())
	}
}
