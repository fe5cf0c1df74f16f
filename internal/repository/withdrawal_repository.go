package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/titipin/titip-backend/internal/models"
	"github.com/titipin/titip-backend/internal/repository/common"
)

var ErrWithdrawalNotFound = errors.New("withdrawal not found")

type WithdrawalRepository struct {
	db sqlx.ExtContext
}

func NewWithdrawalRepository(db sqlx.ExtContext) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// Create сохраняет заявку. Списание средств выполняет вызывающая транзакция.
func (r *WithdrawalRepository) Create(ctx context.Context, w *models.Withdrawal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO withdrawals (id, user_id, amount, bank_name, account_number, account_holder, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, w.ID, w.UserID, w.Amount, w.BankName, w.AccountNumber, w.AccountHolder, w.Status, w.CreatedAt)
	if err != nil {
		return fmt.Errorf("withdrawal repository: create %w", err)
	}
	return nil
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	return common.GetByID[models.Withdrawal](ctx, r.db, "withdrawals", id, ErrWithdrawalNotFound)
}

// GetForUpdate блокирует заявку, чтобы два администратора не обработали её одновременно.
func (r *WithdrawalRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	return common.GetForUpdate[models.Withdrawal](ctx, r.db, "withdrawals", id, ErrWithdrawalNotFound)
}

func (r *WithdrawalRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Withdrawal, error) {
	withdrawals := []models.Withdrawal{}
	err := sqlx.SelectContext(ctx, r.db, &withdrawals, `
		SELECT * FROM withdrawals WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: list by user %w", err)
	}
	return withdrawals, nil
}

// ListPending возвращает очередь на одобрение, старые заявки первыми.
func (r *WithdrawalRepository) ListPending(ctx context.Context, limit, offset int) ([]models.Withdrawal, error) {
	withdrawals := []models.Withdrawal{}
	err := sqlx.SelectContext(ctx, r.db, &withdrawals, `
		SELECT * FROM withdrawals WHERE status = 'pending' ORDER BY created_at ASC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: list pending %w", err)
	}
	return withdrawals, nil
}

// UpdateStatus переводит заявку из pending. Повторная обработка не пройдёт условие WHERE.
func (r *WithdrawalRepository) UpdateStatus(ctx context.Context, w *models.Withdrawal) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE withdrawals SET status = $2, processed_at = $3, processed_by = $4
		WHERE id = $1 AND status = 'pending'
	`, w.ID, w.Status, w.ProcessedAt, w.ProcessedBy)
	if err != nil {
		return fmt.Errorf("withdrawal repository: update status %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("withdrawal repository: update status rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrWithdrawalNotFound
	}
	return nil
}
