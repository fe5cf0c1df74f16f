package persistence

import (
	"errors"

	"github.com/titipin/titip-backend/internal/pkg/apperror"
	"github.com/titipin/titip-backend/internal/repository/common"
)

// mapDBError оставляет AppError как есть, конфликты сериализации
// превращает в TRANSACTION_FAILED, остальное в DATABASE_ERROR.
func mapDBError(err error, message string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if common.IsSerializationFailure(err) {
		return apperror.Wrap(err, apperror.ErrCodeTransactionFailed, apperror.ErrTransactionFailed.Message)
	}
	if errors.Is(err, common.ErrInvalidInput) {
		return apperror.Wrap(err, apperror.ErrCodeIllegalTransition, "изменение нарушает ограничения заказа")
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, message)
}
