package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/titipin/titip-backend/internal/domain/repository"
	"github.com/titipin/titip-backend/internal/events"
	"github.com/titipin/titip-backend/internal/models"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
)

// TopUp зачисляет пополнение и возвращает новый баланс.
// Шлюз оплаты здесь не участвует: вызывается после подтверждения платежа.
func (s *Service) TopUp(ctx context.Context, userID uuid.UUID, amount int64) (int64, error) {
	if amount <= 0 || amount < s.limits.MinTopUp {
		return 0, apperror.New(apperror.ErrCodeInvalidAmount,
			fmt.Sprintf("минимальная сумма пополнения %d", s.limits.MinTopUp))
	}

	var balance int64
	fields := logrus.Fields{"user_id": userID, "amount": amount}
	err := s.run(ctx, "topup", fields, func(ctx context.Context, tx repository.Tx, out *events.Outbox) error {
		b, err := tx.Ledger().Credit(ctx, repository.Entry{
			UserID:   userID,
			Amount:   amount,
			Category: models.CategoryTopUp,
		})
		if err != nil {
			return err
		}
		balance = b
		return out.Notify(ctx, tx, userID, "Баланс пополнен", fmt.Sprintf("Зачислено %d", amount), "/wallet")
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}
