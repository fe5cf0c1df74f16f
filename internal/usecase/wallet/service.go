// Package wallet пополнения и выводы средств пользователя.
package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/titipin/titip-backend/internal/domain/repository"
	"github.com/titipin/titip-backend/internal/events"
	"github.com/titipin/titip-backend/internal/logger"
	"github.com/titipin/titip-backend/internal/metrics"
	"github.com/titipin/titip-backend/internal/models"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
)

// WithdrawalLister чтение заявок вне транзакции.
type WithdrawalLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Withdrawal, error)
	ListPending(ctx context.Context, limit, offset int) ([]models.Withdrawal, error)
}

type Limits struct {
	MinTopUp      int64
	MinWithdrawal int64
}

type Service struct {
	tx     repository.TxManager
	pub    repository.EventPublisher
	lister WithdrawalLister
	limits Limits
	log    *logrus.Entry
}

func NewService(tx repository.TxManager, pub repository.EventPublisher, lister WithdrawalLister, limits Limits) *Service {
	return &Service{
		tx:     tx,
		pub:    pub,
		lister: lister,
		limits: limits,
		log:    logger.WithComponent("wallet"),
	}
}

type txFunc func(ctx context.Context, tx repository.Tx, out *events.Outbox) error

func (s *Service) run(ctx context.Context, op string, fields logrus.Fields, fn txFunc) error {
	var out *events.Outbox
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		out = events.NewOutbox()
		return fn(ctx, tx, out)
	})
	if err != nil {
		var appErr *apperror.AppError
		switch {
		case errors.As(err, &appErr):
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			err = apperror.Wrap(err, apperror.ErrCodeTransactionFailed, apperror.ErrTransactionFailed.Message)
		default:
			err = apperror.Wrap(err, apperror.ErrCodeDatabaseError, "ошибка хранилища")
		}
	}

	metrics.WalletOperations.WithLabelValues(op, metrics.Outcome(err)).Inc()
	entry := s.log.WithFields(fields).WithField("op", op)
	if err != nil {
		entry.WithError(err).Warn("операция с кошельком не выполнена")
		return err
	}

	entry.Info("операция с кошельком выполнена")
	out.Flush(ctx, s.pub)
	return nil
}
