package escrow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/titipin/titip-backend/internal/domain/entity"
	"github.com/titipin/titip-backend/internal/domain/repository"
	"github.com/titipin/titip-backend/internal/domain/valueobject"
	"github.com/titipin/titip-backend/internal/events"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
)

var deliveryTexts = map[valueobject.OrderStatus]struct {
	title   string
	message string
	chat    string
}{
	valueobject.OrderStatusBought: {
		title:   "Товар выкуплен",
		message: "Путешественник выкупил товар по заказу «%s»",
		chat:    "Товар выкуплен",
	},
	valueobject.OrderStatusOnTheWay: {
		title:   "Заказ в пути",
		message: "Заказ «%s» в пути к вам",
		chat:    "Заказ в пути",
	},
}

// AdvanceDelivery переводит taken → bought или bought → otw и пишет системное сообщение в чат.
func (c *Coordinator) AdvanceDelivery(ctx context.Context, orderID, caller uuid.UUID, target string) (*entity.Order, error) {
	status := valueobject.OrderStatus(target)
	texts, ok := deliveryTexts[status]
	if !ok {
		return nil, apperror.New(apperror.ErrCodeIllegalTransition, "недопустимый целевой статус доставки")
	}

	fields := orderFields(orderID, caller)
	fields["target"] = target

	var result *entity.Order
	err := c.run(ctx, "advance_delivery", fields, func(ctx context.Context, tx repository.Tx, out *events.Outbox) error {
		order, err := loadOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := order.Advance(caller, status); err != nil {
			return err
		}
		if err := tx.Orders().UpdateState(ctx, order); err != nil {
			return err
		}

		if err := out.Notify(ctx, tx, order.RequesterID, texts.title, fmt.Sprintf(texts.message, order.Item), orderLink(order.ID)); err != nil {
			return err
		}
		if err := out.Say(ctx, tx, order.ID, caller, texts.chat, order.RequesterID); err != nil {
			return err
		}

		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
