package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/titipin/titip-backend/internal/dto"
	"github.com/titipin/titip-backend/internal/http/handlers/common"
	"github.com/titipin/titip-backend/internal/http/response"
	"github.com/titipin/titip-backend/internal/models"
)

type ReviewUseCase interface {
	CreateReview(ctx context.Context, orderID, reviewerID uuid.UUID, rating int, comment string) (*models.Review, error)
	CanReview(ctx context.Context, orderID, userID uuid.UUID) (bool, error)
	ListUserReviews(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Review, error)
}

type ReviewHandler struct {
	reviews ReviewUseCase
}

func NewReviewHandler(reviews ReviewUseCase) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// CreateReview обрабатывает POST /orders/:id/review.
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req dto.CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviews.CreateReview(c.Request.Context(), orderID, userID, req.Rating, req.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusCreated, review)
}

// CanReview обрабатывает GET /orders/:id/can-review.
func (h *ReviewHandler) CanReview(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	can, err := h.reviews.CanReview(c.Request.Context(), orderID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.CanReviewResponse{CanReview: can})
}

// ListUserReviews обрабатывает GET /users/:id/reviews.
func (h *ReviewHandler) ListUserReviews(c *gin.Context) {
	targetID, ok := idParam(c, "id")
	if !ok {
		return
	}

	limit, offset := common.GetPagination(c)
	reviews, err := h.reviews.ListUserReviews(c.Request.Context(), targetID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, reviews)
}
