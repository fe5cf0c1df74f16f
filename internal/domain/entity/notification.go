package entity

import (
	"time"

	"github.com/google/uuid"
)

// Notification уведомление, создаваемое вместе с изменением заказа или кошелька.
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	Message   string
	Link      *string
	IsRead    bool
	CreatedAt time.Time
}

func NewNotification(userID uuid.UUID, title, message, link string) *Notification {
	n := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if link != "" {
		n.Link = &link
	}
	return n
}

// Message сообщение чата заказа.
type Message struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	SenderID  uuid.UUID
	Content   string
	Type      string
	CreatedAt time.Time
}

func NewMessage(orderID, senderID uuid.UUID, content, msgType string) *Message {
	return &Message{
		ID:        uuid.New(),
		OrderID:   orderID,
		SenderID:  senderID,
		Content:   content,
		Type:      msgType,
		CreatedAt: time.Now(),
	}
}
