package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/titipin/titip-backend/internal/domain/entity"
)

// EventPublisher доставляет уже закоммиченные уведомления и сообщения.
// Доставка best effort: ошибки не возвращаются вызывающему.
type EventPublisher interface {
	PublishNotification(ctx context.Context, n entity.Notification)
	PublishMessage(ctx context.Context, m entity.Message, recipients []uuid.UUID)
}
