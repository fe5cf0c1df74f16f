package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/titipin/titip-backend/internal/models"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
	"github.com/titipin/titip-backend/internal/repository"
)

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	if args.Error(0) == nil {
		review.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockReviewRepo) GetByOrderAndReviewer(ctx context.Context, orderID, reviewerID uuid.UUID) (*models.Review, error) {
	args := m.Called(ctx, orderID, reviewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *mockReviewRepo) ListByTargetID(ctx context.Context, targetID uuid.UUID, limit, offset int) ([]models.Review, error) {
	args := m.Called(ctx, targetID, limit, offset)
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *mockReviewRepo) RefreshTargetRating(ctx context.Context, targetID uuid.UUID) error {
	return m.Called(ctx, targetID).Error(0)
}

func newReviewService(repo *mockReviewRepo, orders *mockOrderReader) *ReviewService {
	inTx := func(ctx context.Context, fn func(repo ReviewRepository) error) error {
		return fn(repo)
	}
	return NewReviewService(repo, inTx, orders)
}

func TestReviewService_CreateReview_Success(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	orderRepo := new(mockOrderReader)
	svc := newReviewService(reviewRepo, orderRepo)
	ctx := context.Background()

	order, requester, traveler := orderWithTraveler(models.OrderStatusDone)
	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	reviewRepo.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)
	reviewRepo.On("RefreshTargetRating", ctx, traveler).Return(nil)

	review, err := svc.CreateReview(ctx, order.ID, requester, 5, " Cepat dan rapi ")

	require.NoError(t, err)
	assert.Equal(t, traveler, review.TargetID)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, "Cepat dan rapi", review.Comment)
	reviewRepo.AssertExpectations(t)
}

func TestReviewService_CreateReview_InvalidRating(t *testing.T) {
	svc := newReviewService(new(mockReviewRepo), new(mockOrderReader))
	ctx := context.Background()

	_, err := svc.CreateReview(ctx, uuid.New(), uuid.New(), 0, "")
	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, err.Error(), "от 1 до 5")

	_, err = svc.CreateReview(ctx, uuid.New(), uuid.New(), 6, "")
	assert.True(t, apperror.IsValidation(err))
}

func TestReviewService_CreateReview_OrderNotDone(t *testing.T) {
	orderRepo := new(mockOrderReader)
	svc := newReviewService(new(mockReviewRepo), orderRepo)
	ctx := context.Background()

	order, requester, _ := orderWithTraveler(models.OrderStatusOnTheWay)
	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)

	_, err := svc.CreateReview(ctx, order.ID, requester, 5, "")
	assert.True(t, apperror.IsIllegalTransition(err))
}

func TestReviewService_CreateReview_AlreadyReviewed(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	orderRepo := new(mockOrderReader)
	svc := newReviewService(reviewRepo, orderRepo)
	ctx := context.Background()

	order, requester, _ := orderWithTraveler(models.OrderStatusDone)
	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	reviewRepo.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(repository.ErrReviewExists)

	_, err := svc.CreateReview(ctx, order.ID, requester, 4, "")
	assert.True(t, apperror.IsAlreadyProcessed(err))
	reviewRepo.AssertNotCalled(t, "RefreshTargetRating", mock.Anything, mock.Anything)
}

func TestReviewService_CreateReview_OnlyRequester(t *testing.T) {
	orderRepo := new(mockOrderReader)
	svc := newReviewService(new(mockReviewRepo), orderRepo)
	ctx := context.Background()

	order, _, traveler := orderWithTraveler(models.OrderStatusDone)
	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)

	_, err := svc.CreateReview(ctx, order.ID, traveler, 5, "")
	assert.True(t, apperror.IsForbidden(err))

	_, err = svc.CreateReview(ctx, order.ID, uuid.New(), 5, "")
	assert.True(t, apperror.IsForbidden(err))
}

func TestReviewService_CreateReview_UnknownOrder(t *testing.T) {
	orderRepo := new(mockOrderReader)
	svc := newReviewService(new(mockReviewRepo), orderRepo)
	ctx := context.Background()

	id := uuid.New()
	orderRepo.On("GetByID", ctx, id).Return(nil, repository.ErrOrderNotFound)

	_, err := svc.CreateReview(ctx, id, uuid.New(), 5, "")
	assert.True(t, apperror.IsNotFound(err))
}

func TestReviewService_ListUserReviews(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	svc := newReviewService(reviewRepo, new(mockOrderReader))
	ctx := context.Background()

	userID := uuid.New()
	expected := []models.Review{{ID: uuid.New()}, {ID: uuid.New()}}
	reviewRepo.On("ListByTargetID", ctx, userID, 20, 0).Return(expected, nil)

	reviews, err := svc.ListUserReviews(ctx, userID, 0, 0)
	assert.NoError(t, err)
	assert.Len(t, reviews, 2)
}

func TestReviewService_CanReview(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	orderRepo := new(mockOrderReader)
	svc := newReviewService(reviewRepo, orderRepo)
	ctx := context.Background()

	order, requester, traveler := orderWithTraveler(models.OrderStatusDone)
	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	reviewRepo.On("GetByOrderAndReviewer", ctx, order.ID, requester).Return(nil, repository.ErrReviewNotFound).Once()

	can, err := svc.CanReview(ctx, order.ID, requester)
	require.NoError(t, err)
	assert.True(t, can)

	can, err = svc.CanReview(ctx, order.ID, traveler)
	require.NoError(t, err)
	assert.False(t, can)

	reviewRepo.On("GetByOrderAndReviewer", ctx, order.ID, requester).Return(&models.Review{ID: uuid.New()}, nil).Once()
	can, err = svc.CanReview(ctx, order.ID, requester)
	require.NoError(t, err)
	assert.False(t, can)
}

func TestReviewService_CanReview_NotDone(t *testing.T) {
	orderRepo := new(mockOrderReader)
	svc := newReviewService(new(mockReviewRepo), orderRepo)
	ctx := context.Background()

	order, requester, _ := orderWithTraveler(models.OrderStatusBought)
	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)

	can, err := svc.CanReview(ctx, order.ID, requester)
	assert.NoError(t, err)
	assert.False(t, can)
}

func TestReviewService_CanReview_StorageError(t *testing.T) {
	orderRepo := new(mockOrderReader)
	svc := newReviewService(new(mockReviewRepo), orderRepo)
	ctx := context.Background()

	id := uuid.New()
	orderRepo.On("GetByID", ctx, id).Return(nil, errors.New("conn reset"))

	_, err := svc.CanReview(ctx, id, uuid.New())
	assert.Equal(t, apperror.ErrCodeDatabaseError, apperror.CodeOf(err))
}
