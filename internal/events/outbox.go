package events

import (
	"context"

	"github.com/google/uuid"
	"github.com/titipin/titip-backend/internal/domain/entity"
	"github.com/titipin/titip-backend/internal/domain/repository"
)

type pendingMessage struct {
	message    entity.Message
	recipients []uuid.UUID
}

// Outbox собирает уведомления и сообщения, записанные в транзакции,
// чтобы отправить их только после коммита. На каждую попытку транзакции
// создаётся новый Outbox.
type Outbox struct {
	notifications []entity.Notification
	messages      []pendingMessage
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

// Notify сохраняет уведомление в транзакции и ставит его в очередь на доставку.
func (o *Outbox) Notify(ctx context.Context, tx repository.Tx, userID uuid.UUID, title, message, link string) error {
	n := entity.NewNotification(userID, title, message, link)
	if err := tx.Notifications().Create(ctx, n); err != nil {
		return err
	}
	o.notifications = append(o.notifications, *n)
	return nil
}

// Say добавляет системное сообщение в чат заказа.
func (o *Outbox) Say(ctx context.Context, tx repository.Tx, orderID, senderID uuid.UUID, content string, recipients ...uuid.UUID) error {
	m := entity.NewMessage(orderID, senderID, content, "text")
	if err := tx.Messages().Create(ctx, m); err != nil {
		return err
	}
	o.messages = append(o.messages, pendingMessage{message: *m, recipients: recipients})
	return nil
}

func (o *Outbox) Notifications() []entity.Notification {
	return o.notifications
}

// Flush передаёт накопленное издателю. Вызывать только после успешного коммита.
func (o *Outbox) Flush(ctx context.Context, pub repository.EventPublisher) {
	if o == nil || pub == nil {
		return
	}
	for _, n := range o.notifications {
		pub.PublishNotification(ctx, n)
	}
	for _, m := range o.messages {
		pub.PublishMessage(ctx, m.message, m.recipients)
	}
}
