package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/titipin/titip-backend/internal/domain/entity"
	"github.com/titipin/titip-backend/internal/domain/repository"
	"github.com/titipin/titip-backend/internal/domain/valueobject"
	"github.com/titipin/titip-backend/internal/models"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
)

type memTx struct {
	st *state
}

func (t *memTx) Ledger() repository.Ledger { return ledger{t.st} }
func (t *memTx) Orders() repository.OrderRepository { return orders{t.st} }
func (t *memTx) Withdrawals() repository.WithdrawalRepository { return withdrawals{t.st} }
func (t *memTx) Notifications() repository.NotificationWriter { return notifications{t.st} }
func (t *memTx) Messages() repository.MessageWriter { return messages{t.st} }

type ledger struct{ st *state }

func (l ledger) Debit(_ context.Context, e repository.Entry) (int64, error) {
	balance, ok := l.st.balances[e.UserID]
	if !ok {
		return 0, apperror.ErrUserNotFound
	}
	if balance < e.Amount {
		return balance, apperror.ErrInsufficientFunds
	}
	l.st.balances[e.UserID] = balance - e.Amount
	l.appendLog(e, models.WalletLogDebit)
	return balance - e.Amount, nil
}

func (l ledger) Credit(_ context.Context, e repository.Entry) (int64, error) {
	balance, ok := l.st.balances[e.UserID]
	if !ok {
		return 0, apperror.ErrUserNotFound
	}
	l.st.balances[e.UserID] = balance + e.Amount
	l.appendLog(e, models.WalletLogCredit)
	return balance + e.Amount, nil
}

func (l ledger) Balance(_ context.Context, userID uuid.UUID) (int64, error) {
	balance, ok := l.st.balances[userID]
	if !ok {
		return 0, apperror.ErrUserNotFound
	}
	return balance, nil
}

func (l ledger) appendLog(e repository.Entry, logType string) {
	l.st.logs = append(l.st.logs, models.WalletLog{
		ID:          uuid.New(),
		UserID:      e.UserID,
		Amount:      e.Amount,
		Type:        logType,
		Category:    e.Category,
		ReferenceID: e.ReferenceID,
		CreatedAt:   time.Now(),
	})
}

type orders struct{ st *state }

func (o orders) Create(_ context.Context, order *entity.Order) error {
	o.st.orders[order.ID] = copyOrder(*order)
	return nil
}

func (o orders) GetForUpdate(_ context.Context, id uuid.UUID) (*entity.Order, error) {
	order, ok := o.st.orders[id]
	if !ok {
		return nil, apperror.ErrOrderNotFound
	}
	c := copyOrder(order)
	return &c, nil
}

func (o orders) UpdateState(_ context.Context, order *entity.Order) error {
	current, ok := o.st.orders[order.ID]
	if !ok {
		return apperror.ErrOrderNotFound
	}
	if current.TravelerID != nil && (order.TravelerID == nil || *current.TravelerID != *order.TravelerID) {
		return apperror.New(apperror.ErrCodeIllegalTransition, "путешественник уже назначен")
	}
	current.Status = order.Status
	current.TravelerID = order.TravelerID
	current.UpdatedAt = order.UpdatedAt
	o.st.orders[order.ID] = copyOrder(current)
	return nil
}

func copyOrder(o entity.Order) entity.Order {
	if o.TravelerID != nil {
		id := *o.TravelerID
		o.TravelerID = &id
	}
	return o
}

type withdrawals struct{ st *state }

func (w withdrawals) Create(_ context.Context, wd *entity.Withdrawal) error {
	w.st.withdrawals[wd.ID] = *wd
	return nil
}

func (w withdrawals) GetForUpdate(_ context.Context, id uuid.UUID) (*entity.Withdrawal, error) {
	wd, ok := w.st.withdrawals[id]
	if !ok {
		return nil, apperror.ErrWithdrawalNotFound
	}
	return &wd, nil
}

func (w withdrawals) UpdateStatus(_ context.Context, wd *entity.Withdrawal) error {
	current, ok := w.st.withdrawals[wd.ID]
	if !ok {
		return apperror.ErrWithdrawalNotFound
	}
	if current.Status != valueobject.WithdrawalStatusPending {
		return apperror.ErrAlreadyProcessed
	}
	w.st.withdrawals[wd.ID] = *wd
	return nil
}

type notifications struct{ st *state }

func (n notifications) Create(_ context.Context, notification *entity.Notification) error {
	n.st.notifications = append(n.st.notifications, *notification)
	return nil
}

type messages struct{ st *state }

func (m messages) Create(_ context.Context, msg *entity.Message) error {
	m.st.messages = append(m.st.messages, *msg)
	return nil
}
