package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/titipin/titip-backend/internal/domain/entity"
	"github.com/titipin/titip-backend/internal/domain/repository"
	"github.com/titipin/titip-backend/internal/events"
	"github.com/titipin/titip-backend/internal/models"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
)

type WithdrawalInput struct {
	UserID        uuid.UUID
	Amount        int64
	BankName      string
	AccountNumber string
	AccountHolder string
}

// RequestWithdrawal сразу списывает сумму и создаёт заявку в статусе pending.
func (s *Service) RequestWithdrawal(ctx context.Context, in WithdrawalInput) (*entity.Withdrawal, error) {
	draft, err := entity.NewWithdrawal(in.UserID, in.Amount, s.limits.MinWithdrawal, in.BankName, in.AccountNumber, in.AccountHolder)
	if err != nil {
		return nil, err
	}

	var created *entity.Withdrawal
	fields := logrus.Fields{"withdrawal_id": draft.ID, "user_id": in.UserID, "amount": in.Amount}
	err = s.run(ctx, "withdrawal_request", fields, func(ctx context.Context, tx repository.Tx, out *events.Outbox) error {
		w := *draft
		ref := w.ID
		if _, err := tx.Ledger().Debit(ctx, repository.Entry{
			UserID:      w.UserID,
			Amount:      w.Amount.Int64(),
			Category:    models.CategoryWithdrawal,
			ReferenceID: &ref,
		}); err != nil {
			return err
		}
		if err := tx.Withdrawals().Create(ctx, &w); err != nil {
			return err
		}
		created = &w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ApproveWithdrawal фиксирует выплату. Баланс не меняется: сумма списана при создании заявки.
func (s *Service) ApproveWithdrawal(ctx context.Context, id, adminID uuid.UUID) (*entity.Withdrawal, error) {
	return s.process(ctx, "withdrawal_approve", id, adminID, func(ctx context.Context, tx repository.Tx, out *events.Outbox, w *entity.Withdrawal) error {
		if err := w.Approve(adminID); err != nil {
			return err
		}
		if err := tx.Withdrawals().UpdateStatus(ctx, w); err != nil {
			return err
		}
		return out.Notify(ctx, tx, w.UserID, "Вывод средств одобрен",
			fmt.Sprintf("Заявка на вывод %d в %s одобрена", w.Amount.Int64(), w.BankName), "/wallet")
	})
}

// RejectWithdrawal отклоняет заявку и возвращает сумму на баланс.
func (s *Service) RejectWithdrawal(ctx context.Context, id, adminID uuid.UUID) (*entity.Withdrawal, error) {
	return s.process(ctx, "withdrawal_reject", id, adminID, func(ctx context.Context, tx repository.Tx, out *events.Outbox, w *entity.Withdrawal) error {
		if err := w.Reject(adminID); err != nil {
			return err
		}
		ref := w.ID
		if _, err := tx.Ledger().Credit(ctx, repository.Entry{
			UserID:      w.UserID,
			Amount:      w.Amount.Int64(),
			Category:    models.CategoryWithdrawalRefund,
			ReferenceID: &ref,
		}); err != nil {
			return err
		}
		if err := tx.Withdrawals().UpdateStatus(ctx, w); err != nil {
			return err
		}
		return out.Notify(ctx, tx, w.UserID, "Вывод средств отклонён",
			fmt.Sprintf("Заявка на вывод %d отклонена, средства возвращены на баланс", w.Amount.Int64()), "/wallet")
	})
}

func (s *Service) process(
	ctx context.Context,
	op string,
	id, adminID uuid.UUID,
	fn func(ctx context.Context, tx repository.Tx, out *events.Outbox, w *entity.Withdrawal) error,
) (*entity.Withdrawal, error) {
	var result *entity.Withdrawal
	fields := logrus.Fields{"withdrawal_id": id, "admin_id": adminID}
	err := s.run(ctx, op, fields, func(ctx context.Context, tx repository.Tx, out *events.Outbox) error {
		w, err := tx.Withdrawals().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, tx, out, w); err != nil {
			return err
		}
		result = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) ListMyWithdrawals(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Withdrawal, error) {
	items, err := s.lister.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заявки на вывод")
	}
	return items, nil
}

func (s *Service) ListPending(ctx context.Context, limit, offset int) ([]models.Withdrawal, error) {
	items, err := s.lister.ListPending(ctx, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заявки на вывод")
	}
	return items, nil
}
