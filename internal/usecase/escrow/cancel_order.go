package escrow

import (
	"context"

	"github.com/google/uuid"

	"github.com/titipin/titip-backend/internal/domain/entity"
	"github.com/titipin/titip-backend/internal/domain/repository"
	"github.com/titipin/titip-backend/internal/events"
	"github.com/titipin/titip-backend/internal/models"
)

// CancelOrder возвращает эскроу заказчику и закрывает открытый заказ.
func (c *Coordinator) CancelOrder(ctx context.Context, orderID, caller uuid.UUID) (*entity.Order, error) {
	var result *entity.Order
	err := c.run(ctx, "cancel_order", orderFields(orderID, caller), func(ctx context.Context, tx repository.Tx, out *events.Outbox) error {
		order, err := loadOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := order.Cancel(caller); err != nil {
			return err
		}

		ref := order.ID
		if _, err := tx.Ledger().Credit(ctx, repository.Entry{
			UserID:      order.RequesterID,
			Amount:      order.EscrowAmount(),
			Category:    models.CategoryOrderRefund,
			ReferenceID: &ref,
		}); err != nil {
			return err
		}
		if err := tx.Orders().UpdateState(ctx, order); err != nil {
			return err
		}
		if err := out.Notify(ctx, tx, order.RequesterID,
			"Заказ отменён",
			"Заказ «"+order.Item+"» отменён, средства возвращены на баланс",
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
