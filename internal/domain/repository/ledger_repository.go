package repository

import (
	"context"

	"github.com/google/uuid"
)

// Entry описывает одно движение по кошельку.
type Entry struct {
	UserID      uuid.UUID
	Amount      int64
	Category    string
	ReferenceID *uuid.UUID
}

// Ledger атомарные операции с балансом. Каждая операция пишет запись журнала.
type Ledger interface {
	// Debit возвращает ErrInsufficientFunds, если баланс меньше суммы.
	Debit(ctx context.Context, e Entry) (int64, error)
	Credit(ctx context.Context, e Entry) (int64, error)
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
}
