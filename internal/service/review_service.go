package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/titipin/titip-backend/internal/models"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
	"github.com/titipin/titip-backend/internal/repository"
	"github.com/titipin/titip-backend/internal/validation"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByOrderAndReviewer(ctx context.Context, orderID, reviewerID uuid.UUID) (*models.Review, error)
	ListByTargetID(ctx context.Context, targetID uuid.UUID, limit, offset int) ([]models.Review, error)
	RefreshTargetRating(ctx context.Context, targetID uuid.UUID) error
}

// ReviewTxRunner выполняет fn в транзакции с репозиторием, привязанным к ней.
type ReviewTxRunner func(ctx context.Context, fn func(repo ReviewRepository) error) error

type ReviewService struct {
	repo   ReviewRepository
	inTx   ReviewTxRunner
	orders OrderReader
}

func NewReviewService(repo ReviewRepository, inTx ReviewTxRunner, orders OrderReader) *ReviewService {
	return &ReviewService{repo: repo, inTx: inTx, orders: orders}
}

// CreateReview отзыв заказчика о путешественнике после завершения заказа.
// Рейтинг профиля пересчитывается в той же транзакции.
func (s *ReviewService) CreateReview(ctx context.Context, orderID, reviewerID uuid.UUID, rating int, comment string) (*models.Review, error) {
	if err := validation.ValidateRating(rating); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateComment(comment); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	order, err := s.reviewableOrder(ctx, orderID, reviewerID)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		OrderID:    orderID,
		ReviewerID: reviewerID,
		TargetID:   *order.TravelerID,
		Rating:     rating,
		Comment:    strings.TrimSpace(comment),
	}

	err = s.inTx(ctx, func(repo ReviewRepository) error {
		if err := repo.Create(ctx, review); err != nil {
			return err
		}
		return repo.RefreshTargetRating(ctx, review.TargetID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrReviewExists) {
			return nil, apperror.New(apperror.ErrCodeAlreadyProcessed, "отзыв на этот заказ уже оставлен")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить отзыв")
	}

	return review, nil
}

// CanReview сообщает, может ли пользователь сейчас оставить отзыв.
func (s *ReviewService) CanReview(ctx context.Context, orderID, userID uuid.UUID) (bool, error) {
	if _, err := s.reviewableOrder(ctx, orderID, userID); err != nil {
		if apperror.CodeOf(err) == apperror.ErrCodeDatabaseError {
			return false, err
		}
		return false, nil
	}

	_, err := s.repo.GetByOrderAndReviewer(ctx, orderID, userID)
	switch {
	case errors.Is(err, repository.ErrReviewNotFound):
		return true, nil
	case err != nil:
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить отзыв")
	default:
		return false, nil
	}
}

// ListUserReviews возвращает отзывы о пользователе.
func (s *ReviewService) ListUserReviews(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Review, error) {
	limit, offset = normalizePage(limit, offset)
	reviews, err := s.repo.ListByTargetID(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить отзывы")
	}
	return reviews, nil
}

func (s *ReviewService) reviewableOrder(ctx context.Context, orderID, reviewerID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказ")
	}
	if order.RequesterID != reviewerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "отзыв оставляет только заказчик")
	}
	if order.Status != models.OrderStatusDone || order.TravelerID == nil {
		return nil, apperror.New(apperror.ErrCodeIllegalTransition, "отзыв можно оставить только после завершения заказа")
	}
	return order, nil
}
