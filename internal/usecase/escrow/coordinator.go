// Package escrow координирует жизненный цикл заказа и движение эскроу.
// Каждая операция выполняется одной транзакцией: баланс, заказ,
// уведомления и системные сообщения меняются вместе или не меняются вовсе.
package escrow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/titipin/titip-backend/internal/domain/entity"
	"github.com/titipin/titip-backend/internal/domain/repository"
	"github.com/titipin/titip-backend/internal/events"
	"github.com/titipin/titip-backend/internal/logger"
	"github.com/titipin/titip-backend/internal/metrics"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
)

type Coordinator struct {
	tx  repository.TxManager
	pub repository.EventPublisher
	log *logrus.Entry
}

func NewCoordinator(tx repository.TxManager, pub repository.EventPublisher) *Coordinator {
	return &Coordinator{
		tx:  tx,
		pub: pub,
		log: logger.WithComponent("escrow"),
	}
}

type txFunc func(ctx context.Context, tx repository.Tx, out *events.Outbox) error

// run выполняет fn в транзакции и после коммита отдаёт накопленные события издателю.
func (c *Coordinator) run(ctx context.Context, op string, fields logrus.Fields, fn txFunc) error {
	var out *events.Outbox
	err := c.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		out = events.NewOutbox()
		return fn(ctx, tx, out)
	})
	err = normalize(err)

	metrics.EscrowOperations.WithLabelValues(op, metrics.Outcome(err)).Inc()
	entry := c.log.WithFields(fields).WithField("op", op)
	if err != nil {
		if apperror.IsRetryable(err) || apperror.CodeOf(err) == apperror.ErrCodeDatabaseError {
			entry.WithError(err).Warn("операция не выполнена")
		} else {
			entry.WithError(err).Debug("операция отклонена")
		}
		return err
	}

	entry.Info("операция выполнена")
	out.Flush(ctx, c.pub)
	return nil
}

// normalize превращает истёкший контекст в повторяемую ошибку транзакции.
func normalize(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperror.Wrap(err, apperror.ErrCodeTransactionFailed, apperror.ErrTransactionFailed.Message)
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "ошибка хранилища")
}

// loadOrder блокирует строку заказа до конца транзакции.
func loadOrder(ctx context.Context, tx repository.Tx, orderID uuid.UUID) (*entity.Order, error) {
	order, err := tx.Orders().GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func orderLink(id uuid.UUID) string {
	return fmt.Sprintf("/orders/%s", id)
}

func orderFields(orderID, userID uuid.UUID) logrus.Fields {
	return logrus.Fields{"order_id": orderID, "user_id": userID}
}
