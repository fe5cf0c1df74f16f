package models

import (
	"time"

	"github.com/google/uuid"
)

// Order описывает заявку на доставку с эскроу цены и чаевых.
type Order struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	RequesterID  uuid.UUID  `db:"requester_id" json:"requester_id"`
	TravelerID   *uuid.UUID `db:"traveler_id" json:"traveler_id,omitempty"`
	Item         string     `db:"item" json:"item"`
	Price        int64      `db:"price" json:"price"`
	Tip          int64      `db:"tip" json:"tip"`
	FromLocation string     `db:"from_location" json:"from_location"`
	ToLocation   string     `db:"to_location" json:"to_location"`
	Status       string     `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// OrderFilter параметры выборки рынка заказов.
type OrderFilter struct {
	ExcludeUserID *uuid.UUID
	From          string
	To            string
	Limit         int
	Offset        int
}

// MarketLocations уникальные точки отправления и назначения открытых заказов.
type MarketLocations struct {
	From []string `json:"from"`
	To   []string `json:"to"`
}

// Message сообщение чата внутри заказа.
type Message struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OrderID   uuid.UUID `db:"order_id" json:"order_id"`
	SenderID  uuid.UUID `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	Type      string    `db:"type" json:"type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
