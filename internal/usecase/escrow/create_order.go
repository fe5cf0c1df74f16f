package escrow

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/titipin/titip-backend/internal/domain/entity"
	"github.com/titipin/titip-backend/internal/domain/repository"
	"github.com/titipin/titip-backend/internal/events"
	"github.com/titipin/titip-backend/internal/models"
)

type CreateOrderInput struct {
	RequesterID  uuid.UUID
	Item         string
	Price        int64
	Tip          int64
	FromLocation string
	ToLocation   string
}

// CreateOrder списывает с заказчика price+tip и создаёт открытый заказ.
func (c *Coordinator) CreateOrder(ctx context.Context, input CreateOrderInput) (*entity.Order, error) {
	// Валидация вне транзакции: при повторе попытки она не меняется.
	draft, err := entity.NewOrder(input.RequesterID, input.Item, input.Price, input.Tip, input.FromLocation, input.ToLocation)
	if err != nil {
		return nil, err
	}

	var created *entity.Order
	fields := logrus.Fields{"order_id": draft.ID, "user_id": input.RequesterID, "amount": draft.EscrowAmount()}
	err = c.run(ctx, "create_order", fields, func(ctx context.Context, tx repository.Tx, out *events.Outbox) error {
		order := *draft
		ref := order.ID

		if _, err := tx.Ledger().Debit(ctx, repository.Entry{
			UserID:      order.RequesterID,
			Amount:      order.EscrowAmount(),
			Category:    models.CategoryOrderEscrow,
			ReferenceID: &ref,
		}); err != nil {
			return err
		}
		if err := tx.Orders().Create(ctx, &order); err != nil {
			return err
		}

		created = &order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
