package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/titipin/titip-backend/internal/domain/entity"
)

type WithdrawalRepository interface {
	Create(ctx context.Context, w *entity.Withdrawal) error
	GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Withdrawal, error)
	UpdateStatus(ctx context.Context, w *entity.Withdrawal) error
}
