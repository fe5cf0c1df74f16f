package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/titipin/titip-backend/internal/domain/entity"
	"github.com/titipin/titip-backend/internal/models"
	"github.com/titipin/titip-backend/internal/service"
)

// OrderResponse заказ в ответах API. Собирается как из сущности эскроу,
// так и из модели чтения, чтобы клиент видел одинаковую форму.
type OrderResponse struct {
	ID           uuid.UUID  `json:"id"`
	RequesterID  uuid.UUID  `json:"requester_id"`
	TravelerID   *uuid.UUID `json:"traveler_id,omitempty"`
	Item         string     `json:"item"`
	Price        int64      `json:"price"`
	Tip          int64      `json:"tip"`
	FromLocation string     `json:"from_location"`
	ToLocation   string     `json:"to_location"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func NewOrderResponse(o *entity.Order) OrderResponse {
	return OrderResponse{
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

func OrderFromModel(o *models.Order) OrderResponse {
	return OrderResponse{
		ID:           o.ID,
		RequesterID:  o.RequesterID,
		TravelerID:   o.TravelerID,
		Item:         o.Item,
		Price:        o.Price,
		Tip:          o.Tip,
		FromLocation: o.FromLocation,
		ToLocation:   o.ToLocation,
		Status:       o.Status,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func OrdersFromModels(orders []models.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, OrderFromModel(&orders[i]))
	}
	return out
}

type WithdrawalResponse struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	Amount        int64      `json:"amount"`
	BankName      string     `json:"bank_name"`
	AccountNumber string     `json:"account_number"`
	AccountHolder string     `json:"account_holder"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	ProcessedBy   *uuid.UUID `json:"processed_by,omitempty"`
}

func NewWithdrawalResponse(w *entity.Withdrawal) WithdrawalResponse {
	return WithdrawalResponse{
		ID:            w.ID,
		UserID:        w.UserID,
		Amount:        w.Amount.Int64(),
		BankName:      w.BankName,
		AccountNumber: w.AccountNumber,
		AccountHolder: w.AccountHolder,
		Status:        string(w.Status),
		CreatedAt:     w.CreatedAt,
		ProcessedAt:   w.ProcessedAt,
		ProcessedBy:   w.ProcessedBy,
	}
}

// BalanceResponse баланс кошелька в минимальных единицах.
type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

type AuthResponse struct {
	User    *models.User       `json:"user"`
	Profile *models.Profile    `json:"profile,omitempty"`
	Tokens  *service.TokenPair `json:"tokens"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type CanReviewResponse struct {
	CanReview bool `json:"can_review"`
}
