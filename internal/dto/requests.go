package dto

// RegisterRequest тело POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest используется и для refresh, и для logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateOrderRequest суммы передаются в минимальных единицах валюты.
type CreateOrderRequest struct {
	Item         string `json:"item" binding:"required"`
	Price        int64  `json:"price"`
	Tip          int64  `json:"tip"`
	FromLocation string `json:"from_location" binding:"required"`
	ToLocation   string `json:"to_location" binding:"required"`
}

// AdvanceOrderRequest целевой статус доставки: bought или otw.
type AdvanceOrderRequest struct {
	Status string `json:"status" binding:"required"`
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

type TopUpRequest struct {
	Amount int64 `json:"amount"`
}

type WithdrawalRequest struct {
	Amount        int64  `json:"amount"`
	BankName      string `json:"bank_name" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
	AccountHolder string `json:"account_holder" binding:"required"`
}

type UpdateProfileRequest struct {
	FullName string `json:"full_name" binding:"required"`
}
