package escrow

import (
	"context"

	"github.com/google/uuid"

	"github.com/titipin/titip-backend/internal/domain/entity"
	"github.com/titipin/titip-backend/internal/domain/repository"
	"github.com/titipin/titip-backend/internal/events"
)

// TakeOrder закрепляет открытый заказ за путешественником. Баланс не меняется:
// путешественник выкупает товар на свои средства вне системы.
func (c *Coordinator) TakeOrder(ctx context.Context, orderID, caller uuid.UUID) (*entity.Order, error) {
	var result *entity.Order
	err := c.run(ctx, "take_order", orderFields(orderID, caller), func(ctx context.Context, tx repository.Tx, out *events.Outbox) error {
		order, err := loadOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := order.Take(caller); err != nil {
			return err
		}
		if err := tx.Orders().UpdateState(ctx, order); err != nil {
			return err
		}

		if err := out.Notify(ctx, tx, order.RequesterID,
			"Заказ взят",
			"Путешественник взял ваш заказ «"+order.Item+"»",
			orderLink(order.ID),
		); err != nil {
			return err
		}
		if err := out.Say(ctx, tx, order.ID, caller, "Заказ взят в работу", order.RequesterID); err != nil {
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
