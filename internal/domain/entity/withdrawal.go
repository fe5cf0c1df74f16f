package entity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/titipin/titip-backend/internal/domain/valueobject"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
)

var accountNumberRe = regexp.MustCompile(`^[0-9]{5,30}$`)

type Withdrawal struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Amount        valueobject.Amount
	BankName      string
	AccountNumber string
	AccountHolder string
	Status        valueobject.WithdrawalStatus
	CreatedAt     time.Time
	ProcessedAt   *time.Time
	ProcessedBy   *uuid.UUID
}

// NewWithdrawal проверяет реквизиты и минимальную сумму вывода.
func NewWithdrawal(userID uuid.UUID, amount, minAmount int64, bank, accountNumber, holder string) (*Withdrawal, error) {
	a, err := valueobject.NewAmount(amount)
	if err != nil {
		return nil, err
	}
	if amount < minAmount {
		return nil, apperror.New(apperror.ErrCodeInvalidAmount, "сумма меньше минимальной для вывода")
	}

	bank = strings.TrimSpace(bank)
	accountNumber = strings.TrimSpace(accountNumber)
	holder = strings.TrimSpace(holder)
	if bank == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "укажите банк")
	}
	if !accountNumberRe.MatchString(accountNumber) {
		return nil, apperror.New(apperror.ErrCodeValidation, "номер счёта должен содержать от 5 до 30 цифр")
	}
	if holder == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "укажите владельца счёта")
	}

	return &Withdrawal{
		ID:            uuid.New(),
		UserID:        userID,
		Amount:        a,
		BankName:      bank,
		AccountNumber: accountNumber,
		AccountHolder: holder,
		Status:        valueobject.WithdrawalStatusPending,
		CreatedAt:     time.Now(),
	}, nil
}

func (w *Withdrawal) Approve(adminID uuid.UUID) error {
	return w.process(adminID, valueobject.WithdrawalStatusApproved)
}

// Reject помечает заявку отклонённой. Возврат средств делает процессор.
func (w *Withdrawal) Reject(adminID uuid.UUID) error {
	return w.process(adminID, valueobject.WithdrawalStatusRejected)
}

func (w *Withdrawal) process(adminID uuid.UUID, status valueobject.WithdrawalStatus) error {
	if w.Status != valueobject.WithdrawalStatusPending {
		return apperror.ErrAlreadyProcessed
	}
	now := time.Now()
	w.Status = status
	w.ProcessedAt = &now
	if adminID != uuid.Nil {
		id := adminID
		w.ProcessedBy = &id
	}
	return nil
}
