package persistence

import (
	"context"

	"github.com/titipin/titip-backend/internal/domain/entity"
	"github.com/titipin/titip-backend/internal/models"
	oldRepo "github.com/titipin/titip-backend/internal/repository"
)

type NotificationWriter struct {
	repo *oldRepo.NotificationRepository
}

func (w NotificationWriter) Create(ctx context.Context, n *entity.Notification) error {
	m := &models.Notification{
		ID:      n.ID,
		UserID:  n.UserID,
		Title:   n.Title,
		Message: n.Message,
		Link:    n.Link,
		IsRead:  n.IsRead,
	}
	if err := w.repo.Create(ctx, m); err != nil {
		return mapDBError(err, "не удалось сохранить уведомление")
	}
	n.CreatedAt = m.CreatedAt
	return nil
}

type MessageWriter struct {
	repo *oldRepo.MessageRepository
}

func (w MessageWriter) Create(ctx context.Context, msg *entity.Message) error {
	m := &models.Message{
		ID:       msg.ID,
		OrderID:  msg.OrderID,
		SenderID: msg.SenderID,
		Content:  msg.Content,
		Type:     msg.Type,
	}
	if err := w.repo.Create(ctx, m); err != nil {
		return mapDBError(err, "не удалось сохранить сообщение")
	}
	msg.CreatedAt = m.CreatedAt
	return nil
}
