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

var ErrInsufficientFunds = errors.New("insufficient funds")

// LedgerRepository работает с балансом в profiles и журналом wallet_logs.
// Принимает как *sqlx.DB, так и *sqlx.Tx, чтобы операции можно было
// объединять в одну транзакцию.
type LedgerRepository struct {
	db sqlx.ExtContext
}

func NewLedgerRepository(db sqlx.ExtContext) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Debit списывает сумму, блокируя строку профиля, и пишет запись журнала.
// Возвращает новый баланс.
func (r *LedgerRepository) Debit(ctx context.Context, userID uuid.UUID, amount int64, category string, referenceID *uuid.UUID) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("ledger repository: debit %w", common.ErrInvalidInput)
	}

	var balance int64
	err := sqlx.GetContext(ctx, r.db, &balance, `SELECT balance FROM profiles WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("ledger repository: debit lock %w", err)
	}
	if balance < amount {
		return balance, ErrInsufficientFunds
	}

	err = sqlx.GetContext(ctx, r.db, &balance, `
		UPDATE profiles SET balance = balance - $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING balance
	`, userID, amount)
	if err != nil {
		if common.IsCheckViolation(err) {
			return 0, ErrInsufficientFunds
		}
		return 0, fmt.Errorf("ledger repository: debit update %w", err)
	}

	if err := r.appendLog(ctx, userID, amount, models.WalletLogDebit, category, referenceID); err != nil {
		return 0, err
	}

	return balance, nil
}

// Credit зачисляет сумму и пишет запись журнала. Возвращает новый баланс.
func (r *LedgerRepository) Credit(ctx context.Context, userID uuid.UUID, amount int64, category string, referenceID *uuid.UUID) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("ledger repository: credit %w", common.ErrInvalidInput)
	}

	var balance int64
	err := sqlx.GetContext(ctx, r.db, &balance, `
		UPDATE profiles SET balance = balance + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING balance
	`, userID, amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("ledger repository: credit update %w", err)
	}

	if err := r.appendLog(ctx, userID, amount, models.WalletLogCredit, category, referenceID); err != nil {
		return 0, err
	}

	return balance, nil
}

func (r *LedgerRepository) appendLog(ctx context.Context, userID uuid.UUID, amount int64, logType, category string, referenceID *uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wallet_logs (id, user_id, amount, type, category, reference_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), userID, amount, logType, category, referenceID)
	if err != nil {
		return fmt.Errorf("ledger repository: append log %w", err)
	}
	return nil
}

// GetBalance возвращает текущий баланс пользователя.
func (r *LedgerRepository) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var balance int64
	if err := sqlx.GetContext(ctx, r.db, &balance, `SELECT balance FROM profiles WHERE user_id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("ledger repository: get balance %w", err)
	}
	return balance, nil
}

// ListLogs возвращает историю кошелька, новые записи первыми.
func (r *LedgerRepository) ListLogs(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletLog, error) {
	logs := []models.WalletLog{}
	err := sqlx.SelectContext(ctx, r.db, &logs, `
		SELECT id, user_id, amount, type, category, reference_id, created_at
		FROM wallet_logs
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: list logs %w", err)
	}
	return logs, nil
}

const reconcileSelect = `
	SELECT p.user_id,
	       p.balance,
	       COALESCE(SUM(CASE WHEN l.type = 'credit' THEN l.amount END), 0) AS credits,
	       COALESCE(SUM(CASE WHEN l.type = 'debit' THEN l.amount END), 0) AS debits
	FROM profiles p
	LEFT JOIN wallet_logs l ON l.user_id = p.user_id
`

// Reconcile сверяет баланс пользователя с суммой журнала.
func (r *LedgerRepository) Reconcile(ctx context.Context, userID uuid.UUID) (*models.Reconciliation, error) {
	var rec models.Reconciliation
	err := sqlx.GetContext(ctx, r.db, &rec, reconcileSelect+` WHERE p.user_id = $1 GROUP BY p.user_id, p.balance`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("ledger repository: reconcile %w", err)
	}
	rec.Check()
	return &rec, nil
}

// ReconcileAll возвращает только пользователей с расхождением.
func (r *LedgerRepository) ReconcileAll(ctx context.Context) ([]models.Reconciliation, error) {
	var rows []models.Reconciliation
	err := sqlx.SelectContext(ctx, r.db, &rows, reconcileSelect+`
		GROUP BY p.user_id, p.balance
		HAVING p.balance <> COALESCE(SUM(CASE WHEN l.type = 'credit' THEN l.amount END), 0)
		                   - COALESCE(SUM(CASE WHEN l.type = 'debit' THEN l.amount END), 0)
		ORDER BY p.user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: reconcile all %w", err)
	}
	for i := range rows {
		rows[i].Check()
	}
	return rows, nil
}
