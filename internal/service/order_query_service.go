package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/titipin/titip-backend/internal/models"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
	"github.com/titipin/titip-backend/internal/repository"
)

const marketLocationsTTL = 30 * time.Second

// OrderReader чтение заказов вне транзакций эскроу.
type OrderReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListMarket(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	ListByRequester(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error)
	ListByTraveler(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error)
	MarketLocations(ctx context.Context) (*models.MarketLocations, error)
}

// OrderQueryService отвечает за рынок заказов и ленты активности.
type OrderQueryService struct {
	orders OrderReader
	cache  *CacheService
}

func NewOrderQueryService(orders OrderReader, cache *CacheService) *OrderQueryService {
	return &OrderQueryService{orders: orders, cache: cache}
}

// ListMarket возвращает открытые заказы, кроме собственных заказов caller.
func (s *OrderQueryService) ListMarket(ctx context.Context, caller uuid.UUID, from, to string, limit, offset int) ([]models.Order, error) {
	limit, offset = normalizePage(limit, offset)
	orders, err := s.orders.ListMarket(ctx, models.OrderFilter{
		ExcludeUserID: &caller,
		From:          strings.TrimSpace(from),
		To:            strings.TrimSpace(to),
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказы")
	}
	return orders, nil
}

// MarketLocations уникальные пункты открытых заказов, кэшируются на 30 секунд.
func (s *OrderQueryService) MarketLocations(ctx context.Context) (*models.MarketLocations, error) {
	value, err := s.cache.GetOrSet(ctx, MarketLocationsCacheKey, marketLocationsTTL, func() (interface{}, error) {
		return s.orders.MarketLocations(ctx)
	})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить пункты маршрутов")
	}
	return value.(*models.MarketLocations), nil
}

// MyRequests заказы, созданные пользователем.
func (s *OrderQueryService) MyRequests(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	limit, offset = normalizePage(limit, offset)
	orders, err := s.orders.ListByRequester(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказы")
	}
	return orders, nil
}

// MyJobs заказы, взятые пользователем как путешественником.
func (s *OrderQueryService) MyJobs(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	limit, offset = normalizePage(limit, offset)
	orders, err := s.orders.ListByTraveler(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказы")
	}
	return orders, nil
}

// GetOrder открытый заказ виден любому пользователю, остальные только участникам.
func (s *OrderQueryService) GetOrder(ctx context.Context, id, caller uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказ")
	}

	if order.Status == models.OrderStatusOpen || isOrderParticipant(order, caller) {
		return order, nil
	}
	return nil, apperror.New(apperror.ErrCodeForbidden, "заказ доступен только его участникам")
}

func isOrderParticipant(order *models.Order, userID uuid.UUID) bool {
	if order.RequesterID == userID {
		return true
	}
	return order.TravelerID != nil && *order.TravelerID == userID
}

// counterpart возвращает второго участника заказа или uuid.Nil, если его нет.
func counterpart(order *models.Order, userID uuid.UUID) uuid.UUID {
	if order.RequesterID == userID {
		if order.TravelerID != nil {
			return *order.TravelerID
		}
		return uuid.Nil
	}
	return order.RequesterID
}
