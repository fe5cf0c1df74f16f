package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/titipin/titip-backend/internal/domain/entity"
	"github.com/titipin/titip-backend/internal/models"
)

type mockOrderReader struct {
	mock.Mock
}

func (m *mockOrderReader) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderReader) ListMarket(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderReader) ListByRequester(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderReader) ListByTraveler(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderReader) MarketLocations(ctx context.Context) (*models.MarketLocations, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MarketLocations), args.Error(1)
}

// recordingPublisher запоминает опубликованные события.
type recordingPublisher struct {
	notifications []entity.Notification
	messages      []entity.Message
	recipients    [][]uuid.UUID
}

func (p *recordingPublisher) PublishNotification(ctx context.Context, n entity.Notification) {
	p.notifications = append(p.notifications, n)
}

func (p *recordingPublisher) PublishMessage(ctx context.Context, m entity.Message, recipients []uuid.UUID) {
	p.messages = append(p.messages, m)
	p.recipients = append(p.recipients, recipients)
}

func orderWithTraveler(status string) (*models.Order, uuid.UUID, uuid.UUID) {
	requester, traveler := uuid.New(), uuid.New()
	return &models.Order{
		ID:           uuid.New(),
		RequesterID:  requester,
		TravelerID:   &traveler,
		Item:         "Kopi Gayo",
		Price:        60000,
		Tip:          10000,
		FromLocation: "Aceh",
		ToLocation:   "Jakarta",
		Status:       status,
	}, requester, traveler
}
