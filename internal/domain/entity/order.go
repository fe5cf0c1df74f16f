package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/titipin/titip-backend/internal/domain/valueobject"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
	"github.com/titipin/titip-backend/internal/validation"
)

type Order struct {
	ID           uuid.UUID
	RequesterID  uuid.UUID
	TravelerID   *uuid.UUID
	Item         string
	Price        valueobject.Amount
	Tip          valueobject.Amount
	FromLocation string
	ToLocation   string
	Status       valueobject.OrderStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewOrder(requesterID uuid.UUID, item string, price, tip int64, from, to string) (*Order, error) {
	item = strings.TrimSpace(item)
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)

	if err := validation.ValidateItem(item); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLocation("пункт отправления", from); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLocation("пункт назначения", to); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	p, err := valueobject.NewAmount(price)
	if err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "цена должна быть положительной")
	}
	t, err := valueobject.NewAmount(tip)
	if err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "чаевые должны быть положительными")
	}
	if _, err := p.Plus(t); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма заказа слишком велика")
	}

	now := time.Now()
	return &Order{
		ID:           uuid.New(),
		RequesterID:  requesterID,
		Item:         item,
		Price:        p,
		Tip:          t,
		FromLocation: from,
		ToLocation:   to,
		Status:       valueobject.OrderStatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// EscrowAmount сумма, удерживаемая с заказчика: цена плюс чаевые.
func (o *Order) EscrowAmount() int64 {
	return o.Price.Int64() + o.Tip.Int64()
}

func (o *Order) IsRequester(userID uuid.UUID) bool {
	return o.RequesterID == userID
}

func (o *Order) IsTraveler(userID uuid.UUID) bool {
	return o.TravelerID != nil && *o.TravelerID == userID
}

// IsParticipant true для заказчика и взявшего заказ путешественника.
func (o *Order) IsParticipant(userID uuid.UUID) bool {
	return o.IsRequester(userID) || o.IsTraveler(userID)
}

// Take закрепляет заказ за путешественником. Заказчик не может взять свой заказ.
func (o *Order) Take(caller uuid.UUID) error {
	if err := o.guardTerminal(); err != nil {
		return err
	}
	if o.IsRequester(caller) {
		return illegal("нельзя взять собственный заказ")
	}
	if o.Status != valueobject.OrderStatusOpen || o.TravelerID != nil {
		return illegal("заказ уже взят")
	}

	traveler := caller
	o.TravelerID = &traveler
	o.setStatus(valueobject.OrderStatusTaken)
	return nil
}

// Cancel отменяет открытый заказ. Возврат эскроу выполняет координатор.
func (o *Order) Cancel(caller uuid.UUID) error {
	if err := o.guardTerminal(); err != nil {
		return err
	}
	if !o.IsRequester(caller) {
		return apperror.New(apperror.ErrCodeForbidden, "отменить заказ может только заказчик")
	}
	if !o.Status.CanTransitionTo(valueobject.OrderStatusCancelled) {
		return illegal("отменить можно только открытый заказ")
	}

	o.setStatus(valueobject.OrderStatusCancelled)
	return nil
}

// Advance двигает доставку: taken → bought, bought → otw.
func (o *Order) Advance(caller uuid.UUID, target valueobject.OrderStatus) error {
	if err := o.guardTerminal(); err != nil {
		return err
	}
	if target != valueobject.OrderStatusBought && target != valueobject.OrderStatusOnTheWay {
		return illegal("недопустимый целевой статус доставки")
	}
	if o.TravelerID == nil {
		return illegal("заказ ещё не взят")
	}
	if !o.IsTraveler(caller) {
		return apperror.New(apperror.ErrCodeForbidden, "статус доставки меняет только путешественник")
	}
	if !o.Status.CanTransitionTo(target) {
		return illegal("переход из " + string(o.Status) + " в " + string(target) + " невозможен")
	}

	o.setStatus(target)
	return nil
}

// Complete подтверждает получение. Только заказчик, только из bought или otw.
func (o *Order) Complete(caller uuid.UUID) error {
	if err := o.guardTerminal(); err != nil {
		return err
	}
	if !o.IsRequester(caller) {
		return apperror.New(apperror.ErrCodeForbidden, "подтвердить получение может только заказчик")
	}
	if !o.Status.CanTransitionTo(valueobject.OrderStatusDone) {
		return illegal("заказ ещё не выкуплен")
	}

	o.setStatus(valueobject.OrderStatusDone)
	return nil
}

func (o *Order) guardTerminal() error {
	if o.Status.IsTerminal() {
		return illegal("заказ уже в финальном статусе " + string(o.Status))
	}
	return nil
}

func (o *Order) setStatus(s valueobject.OrderStatus) {
	o.Status = s
	o.UpdatedAt = time.Now()
}

func illegal(msg string) error {
	return apperror.New(apperror.ErrCodeIllegalTransition, msg)
}
