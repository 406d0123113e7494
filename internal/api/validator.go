package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// CustomValidator はEcho用のカスタムバリデーター
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator は新しいバリデーターを作成する
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate はリクエストのバリデーションを実行する。違反した項目名を連結してメッセージにする
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fields := make([]string, len(verrs))
		for idx, fe := range verrs {
			fields[idx] = fe.Namespace() + ":" + fe.Tag()
		}
		return echo.NewHTTPError(http.StatusBadRequest, "入力値が不正です: "+strings.Join(fields, ", ")).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
