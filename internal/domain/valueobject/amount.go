package valueobject

import (
	"math"

	"github.com/titipin/titip-backend/internal/pkg/apperror"
)

// Amount сумма в минимальных единицах валюты. Всегда положительна.
type Amount int64

func NewAmount(v int64) (Amount, error) {
	if v <= 0 {
		return 0, apperror.New(apperror.ErrCodeInvalidAmount, "сумма должна быть положительной")
	}
	return Amount(v), nil
}

// Plus складывает суммы и отказывает при переполнении int64.
func (a Amount) Plus(b Amount) (Amount, error) {
	if int64(b) > math.MaxInt64-int64(a) {
		return 0, apperror.New(apperror.ErrCodeInvalidAmount, "сумма слишком велика")
	}
	return a + b, nil
}

func (a Amount) Int64() int64 {
	return int64(a)
}
