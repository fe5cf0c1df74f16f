package valueobject

import "github.com/titipin/titip-backend/internal/pkg/apperror"

type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusTaken     OrderStatus = "taken"
	OrderStatusBought    OrderStatus = "bought"
	OrderStatusOnTheWay  OrderStatus = "otw"
	OrderStatusDone      OrderStatus = "done"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusOpen:      {OrderStatusTaken, OrderStatusCancelled},
	OrderStatusTaken:     {OrderStatusBought},
	OrderStatusBought:    {OrderStatusOnTheWay, OrderStatusDone},
	OrderStatusOnTheWay:  {OrderStatusDone},
	OrderStatusDone:      {},
	OrderStatusCancelled: {},
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// IsTerminal сообщает, что из статуса нет переходов.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDone || s == OrderStatusCancelled
}

func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	for _, status := range orderTransitions[s] {
		if status == newStatus {
			return true
		}
	}
	return false
}

func NewOrderStatus(status string) (OrderStatus, error) {
	s := OrderStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус заказа")
	}
	return s, nil
}

type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

func (s WithdrawalStatus) IsValid() bool {
	switch s {
	case WithdrawalStatusPending, WithdrawalStatusApproved, WithdrawalStatusRejected:
		return true
	}
	return false
}

func NewWithdrawalStatus(status string) (WithdrawalStatus, error) {
	s := WithdrawalStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус заявки на вывод")
	}
	return s, nil
}
