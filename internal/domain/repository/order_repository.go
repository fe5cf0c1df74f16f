package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/titipin/titip-backend/internal/domain/entity"
)

// OrderRepository хранилище заказов внутри транзакции.
// GetForUpdate блокирует строку до конца транзакции.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	// UpdateState сохраняет статус и traveler_id.
	UpdateState(ctx context.Context, order *entity.Order) error
}
