package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/titipin/titip-backend/internal/domain/entity"
	"github.com/titipin/titip-backend/internal/domain/valueobject"
	"github.com/titipin/titip-backend/internal/models"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
	oldRepo "github.com/titipin/titip-backend/internal/repository"
)

type WithdrawalAdapter struct {
	repo *oldRepo.WithdrawalRepository
}

func NewWithdrawalAdapter(repo *oldRepo.WithdrawalRepository) *WithdrawalAdapter {
	return &WithdrawalAdapter{repo: repo}
}

func (w *WithdrawalAdapter) Create(ctx context.Context, wd *entity.Withdrawal) error {
	if err := w.repo.Create(ctx, withdrawalToModel(wd)); err != nil {
		return mapDBError(err, "не удалось создать заявку на вывод")
	}
	return nil
}

func (w *WithdrawalAdapter) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Withdrawal, error) {
	m, err := w.repo.GetForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, oldRepo.ErrWithdrawalNotFound) {
			return nil, apperror.ErrWithdrawalNotFound
		}
		return nil, mapDBError(err, "не удалось получить заявку на вывод")
	}

	status, err := valueobject.NewWithdrawalStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return &entity.Withdrawal{
		ID:            m.ID,
		UserID:        m.UserID,
		Amount:        valueobject.Amount(m.Amount),
		BankName:      m.BankName,
		AccountNumber: m.AccountNumber,
		AccountHolder: m.AccountHolder,
		Status:        status,
		CreatedAt:     m.CreatedAt,
		ProcessedAt:   m.ProcessedAt,
		ProcessedBy:   m.ProcessedBy,
	}, nil
}

func (w *WithdrawalAdapter) UpdateStatus(ctx context.Context, wd *entity.Withdrawal) error {
	if err := w.repo.UpdateStatus(ctx, withdrawalToModel(wd)); err != nil {
		if errors.Is(err, oldRepo.ErrWithdrawalNotFound) {
			// Строка заблокирована, значит она есть, но уже не pending.
			return apperror.ErrAlreadyProcessed
		}
		return mapDBError(err, "не удалось обновить заявку на вывод")
	}
	return nil
}

func withdrawalToModel(w *entity.Withdrawal) *models.Withdrawal {
	return &models.Withdrawal{
		ID:            w.ID,
		UserID:        w.UserID,
		Amount:        w.Amount.Int64(),
		BankName:      w.BankName,
		AccountNumber: w.AccountNumber,
		AccountHolder: w.AccountHolder,
		Status:        string(w.Status),
		CreatedAt:     w.CreatedAt,
		ProcessedAt:   w.ProcessedAt,
		ProcessedBy:   w.ProcessedBy,
	}
}
