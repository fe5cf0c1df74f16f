package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/titipin/titip-backend/internal/domain/repository"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
	oldRepo "github.com/titipin/titip-backend/internal/repository"
)

type LedgerAdapter struct {
	repo *oldRepo.LedgerRepository
}

func NewLedgerAdapter(repo *oldRepo.LedgerRepository) *LedgerAdapter {
	return &LedgerAdapter{repo: repo}
}

func (l *LedgerAdapter) Debit(ctx context.Context, e repository.Entry) (int64, error) {
	balance, err := l.repo.Debit(ctx, e.UserID, e.Amount, e.Category, e.ReferenceID)
	if err != nil {
		return 0, mapLedgerError(err)
	}
	return balance, nil
}

func (l *LedgerAdapter) Credit(ctx context.Context, e repository.Entry) (int64, error) {
	balance, err := l.repo.Credit(ctx, e.UserID, e.Amount, e.Category, e.ReferenceID)
	if err != nil {
		return 0, mapLedgerError(err)
	}
	return balance, nil
}

func (l *LedgerAdapter) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	balance, err := l.repo.GetBalance(ctx, userID)
	if err != nil {
		return 0, mapLedgerError(err)
	}
	return balance, nil
}

func mapLedgerError(err error) error {
	switch {
	case errors.Is(err, oldRepo.ErrInsufficientFunds):
		return apperror.ErrInsufficientFunds
	case errors.Is(err, oldRepo.ErrUserNotFound):
		return apperror.ErrUserNotFound
	default:
		return mapDBError(err, "операция с балансом не выполнена")
	}
}
