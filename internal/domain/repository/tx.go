package repository

import (
	"context"

	"github.com/titipin/titip-backend/internal/domain/entity"
)

type NotificationWriter interface {
	Create(ctx context.Context, n *entity.Notification) error
}

type MessageWriter interface {
	Create(ctx context.Context, m *entity.Message) error
}

// Tx набор хранилищ, привязанных к одной транзакции.
type Tx interface {
	Ledger() Ledger
	Orders() OrderRepository
	Withdrawals() WithdrawalRepository
	Notifications() NotificationWriter
	Messages() MessageWriter
}

// TxManager выполняет fn в одной сериализуемой транзакции.
// Ошибка fn откатывает все изменения. Конфликты сериализации
// повторяются самим менеджером, поэтому fn может вызываться несколько раз.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
