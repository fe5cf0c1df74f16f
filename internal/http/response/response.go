// Package response единый формат ответов API.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/titipin/titip-backend/internal/pkg/apperror"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope оболочка любого ответа: data при успехе, error при ошибке.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

func OK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// Error отдаёт AppError с его статусом. Прочие ошибки маскируются как 500.
// Ошибка также добавляется в c.Errors для ErrorHandler.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		Abort(c, http.StatusInternalServerError, apperror.ErrCodeInternal, "внутренняя ошибка сервера")
		return
	}

	message := appErr.Message
	if appErr.HTTPStatus >= http.StatusInternalServerError && appErr.Code != apperror.ErrCodeTransactionFailed {
		message = "внутренняя ошибка сервера"
	}
	if appErr.Code == apperror.ErrCodeTransactionFailed {
		c.Header("Retry-After", "1")
	}
	Abort(c, appErr.HTTPStatus, appErr.Code, message)
}

func Abort(c *gin.Context, status int, code apperror.ErrorCode, message string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: string(code), Message: message},
	})
}

func BadRequest(c *gin.Context, message string) {
	Abort(c, http.StatusBadRequest, apperror.ErrCodeBadRequest, message)
}

func Unauthorized(c *gin.Context) {
	Abort(c, http.StatusUnauthorized, apperror.ErrCodeUnauthorized, "требуется авторизация")
}
