package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/titipin/titip-backend/internal/models"
)

// MessageRepository хранит чат заказа. Сообщения только добавляются.
type MessageRepository struct {
	db sqlx.ExtContext
}

func NewMessageRepository(db sqlx.ExtContext) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create добавляет сообщение. created_at выставляет база, чтобы порядок внутри заказа был монотонным.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.Type == "" {
		msg.Type = models.MessageTypeText
	}

	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO messages (id, order_id, sender_id, content, type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, msg.ID, msg.OrderID, msg.SenderID, msg.Content, msg.Type).Scan(&msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("message repository: create %w", err)
	}
	return nil
}

// ListByOrder возвращает сообщения заказа по возрастанию времени.
func (r *MessageRepository) ListByOrder(ctx context.Context, orderID uuid.UUID, limit, offset int) ([]models.Message, error) {
	messages := []models.Message{}
	err := sqlx.SelectContext(ctx, r.db, &messages, `
		SELECT id, order_id, sender_id, content, type, created_at
		FROM messages
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`, orderID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("message repository: list by order %w", err)
	}
	return messages, nil
}
