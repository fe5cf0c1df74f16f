package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/titipin/titip-backend/internal/models"
	"github.com/titipin/titip-backend/internal/repository/common"
)

var (
	ErrReviewNotFound = errors.New("review not found")
	ErrReviewExists   = errors.New("review already exists")
)

type ReviewRepository struct {
	db sqlx.ExtContext
}

func NewReviewRepository(db sqlx.ExtContext) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create создаёт отзыв. Уникальность (order_id, reviewer_id) проверяет база.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}

	query := `
		INSERT INTO reviews (id, order_id, reviewer_id, target_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		review.ID, review.OrderID, review.ReviewerID, review.TargetID, review.Rating, review.Comment,
	).Scan(&review.CreatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return ErrReviewExists
		}
		return fmt.Errorf("review repository: create %w", err)
	}
	return nil
}

// GetByOrderAndReviewer проверяет, оставлял ли пользователь отзыв на заказ.
func (r *ReviewRepository) GetByOrderAndReviewer(ctx context.Context, orderID, reviewerID uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := sqlx.GetContext(ctx, r.db, &review, `SELECT * FROM reviews WHERE order_id = $1 AND reviewer_id = $2`, orderID, reviewerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("review repository: get by order and reviewer %w", err)
	}
	return &review, nil
}

// ListByTargetID возвращает отзывы о пользователе.
func (r *ReviewRepository) ListByTargetID(ctx context.Context, targetID uuid.UUID, limit, offset int) ([]models.Review, error) {
	reviews := []models.Review{}
	err := sqlx.SelectContext(ctx, r.db, &reviews, `
		SELECT * FROM reviews WHERE target_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, targetID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("review repository: list by target %w", err)
	}
	return reviews, nil
}

// RefreshTargetRating пересчитывает rating и review_count в профиле цели.
// Строка профиля блокируется отдельным запросом: пересчёт начинается со свежего
// снимка и видит отзывы, закоммиченные параллельными транзакциями.
func (r *ReviewRepository) RefreshTargetRating(ctx context.Context, targetID uuid.UUID) error {
	var locked int
	err := r.db.QueryRowxContext(ctx, `SELECT 1 FROM profiles WHERE user_id = $1 FOR UPDATE`, targetID).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("review repository: lock target profile %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE profiles p
		SET rating = s.avg, review_count = s.cnt, updated_at = NOW()
		FROM (
			SELECT COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS cnt
			FROM reviews WHERE target_id = $1
		) s
		WHERE p.user_id = $1
	`, targetID)
	if err != nil {
		return fmt.Errorf("review repository: refresh target rating %w", err)
	}
	return nil
}
