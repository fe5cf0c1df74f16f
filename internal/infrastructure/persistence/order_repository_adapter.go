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

// OrderRepositoryAdapter переводит строки orders в доменную сущность и обратно.
type OrderRepositoryAdapter struct {
	repo *oldRepo.OrderRepository
}

func NewOrderRepositoryAdapter(repo *oldRepo.OrderRepository) *OrderRepositoryAdapter {
	return &OrderRepositoryAdapter{repo: repo}
}

func (r *OrderRepositoryAdapter) Create(ctx context.Context, order *entity.Order) error {
	if err := r.repo.Create(ctx, orderToModel(order)); err != nil {
		return mapDBError(err, "не удалось создать заказ")
	}
	return nil
}

func (r *OrderRepositoryAdapter) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	m, err := r.repo.GetForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, oldRepo.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, mapDBError(err, "не удалось получить заказ")
	}
	return OrderToEntity(m)
}

func (r *OrderRepositoryAdapter) UpdateState(ctx context.Context, order *entity.Order) error {
	if err := r.repo.UpdateState(ctx, orderToModel(order)); err != nil {
		if errors.Is(err, oldRepo.ErrOrderNotFound) {
			return apperror.ErrOrderNotFound
		}
		return mapDBError(err, "не удалось обновить заказ")
	}
	return nil
}

// OrderToEntity собирает доменный заказ из строки таблицы.
func OrderToEntity(m *models.Order) (*entity.Order, error) {
	status, err := valueobject.NewOrderStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return &entity.Order{
		ID:           m.ID,
		RequesterID:  m.RequesterID,
		TravelerID:   m.TravelerID,
		Item:         m.Item,
		Price:        valueobject.Amount(m.Price),
		Tip:          valueobject.Amount(m.Tip),
		FromLocation: m.FromLocation,
		ToLocation:   m.ToLocation,
		Status:       status,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

func orderToModel(o *entity.Order) *models.Order {
	return &models.Order{
		ID:           o.ID,
		RequesterID:  o.RequesterID,
		TravelerID:   o.TravelerID,
		Item:         o.Item,
		Price:        o.Price.Int64(),
		Tip:          o.Tip.Int64(),
		FromLocation: o.FromLocation,
		ToLocation:   o.ToLocation,
		Status:       string(o.Status),
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}
