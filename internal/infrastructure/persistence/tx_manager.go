package persistence

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/titipin/titip-backend/internal/domain/repository"
	"github.com/titipin/titip-backend/internal/logger"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
	"github.com/titipin/titip-backend/internal/pkg/retry"
	oldRepo "github.com/titipin/titip-backend/internal/repository"
	"github.com/titipin/titip-backend/internal/repository/common"
)

// TxManager выполняет функции в сериализуемой транзакции PostgreSQL
// и повторяет их при конфликте сериализации.
type TxManager struct {
	db     *sqlx.DB
	policy retry.Policy
}

func NewTxManager(db *sqlx.DB, policy retry.Policy) *TxManager {
	return &TxManager{db: db, policy: policy}
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return retry.Do(ctx, m.policy, func(ctx context.Context, attempt int) error {
		err := common.WithTransaction(ctx, m.db, common.Serializable, func(tx *sqlx.Tx) error {
			return fn(ctx, newSQLTx(tx))
		})
		if err == nil {
			return nil
		}
		if common.IsSerializationFailure(err) {
			logger.WithComponent("tx").WithField("attempt", attempt).Warn("конфликт сериализации")
			return apperror.Wrap(err, apperror.ErrCodeTransactionFailed, apperror.ErrTransactionFailed.Message)
		}
		return err
	})
}

type sqlTx struct {
	ledger        *LedgerAdapter
	orders        *OrderRepositoryAdapter
	withdrawals   *WithdrawalAdapter
	notifications NotificationWriter
	messages      MessageWriter
}

func newSQLTx(tx *sqlx.Tx) *sqlTx {
	return &sqlTx{
		ledger:        NewLedgerAdapter(oldRepo.NewLedgerRepository(tx)),
		orders:        NewOrderRepositoryAdapter(oldRepo.NewOrderRepository(tx)),
		withdrawals:   NewWithdrawalAdapter(oldRepo.NewWithdrawalRepository(tx)),
		notifications: NotificationWriter{repo: oldRepo.NewNotificationRepository(tx)},
		messages:      MessageWriter{repo: oldRepo.NewMessageRepository(tx)},
	}
}

func (t *sqlTx) Ledger() repository.Ledger { return t.ledger }
func (t *sqlTx) Orders() repository.OrderRepository { return t.orders }
func (t *sqlTx) Withdrawals() repository.WithdrawalRepository { return t.withdrawals }
func (t *sqlTx) Notifications() repository.NotificationWriter { return t.notifications }
func (t *sqlTx) Messages() repository.MessageWriter { return t.messages }
