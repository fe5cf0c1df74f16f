package escrow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/titipin/titip-backend/internal/domain/entity"
	"github.com/titipin/titip-backend/internal/domain/repository"
	"github.com/titipin/titip-backend/internal/events"
	"github.com/titipin/titip-backend/internal/models"
)

// CompleteOrder подтверждает получение и зачисляет путешественнику только чаевые.
// Цена товара не зачисляется: путешественник получает её от заказчика вне системы.
// Повторный вызов отклоняется проверкой статуса, чаевые не выплачиваются дважды.
func (c *Coordinator) CompleteOrder(ctx context.Context, orderID, caller uuid.UUID) (*entity.Order, error) {
	var result *entity.Order
	err := c.run(ctx, "complete_order", orderFields(orderID, caller), func(ctx context.Context, tx repository.Tx, out *events.Outbox) error {
		order, err := loadOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := order.Complete(caller); err != nil {
			return err
		}

		ref := order.ID
		if _, err := tx.Ledger().Credit(ctx, repository.Entry{
			UserID:      *order.TravelerID,
			Amount:      order.Tip.Int64(),
			Category:    models.CategoryOrderTip,
			ReferenceID: &ref,
		}); err != nil {
			return err
		}
		if err := tx.Orders().UpdateState(ctx, order); err != nil {
			return err
		}
		if err := out.Notify(ctx, tx, *order.TravelerID,
			"Заказ завершён",
			fmt.Sprintf("Заказчик подтвердил получение «%s». Начислено чаевых: %d", order.Item, order.Tip.Int64()),
			orderLink(order.ID),
		); err != nil {
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
