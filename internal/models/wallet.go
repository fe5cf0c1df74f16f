package models

import (
	"time"

	"github.com/google/uuid"
)

// Направления записей журнала кошелька
const (
	WalletLogCredit = "credit"
	WalletLogDebit  = "debit"
)

// Категории записей журнала кошелька
const (
	CategoryTopUp            = "topup"
	CategoryOrderEscrow      = "order_escrow"
	CategoryOrderRefund      = "order_refund"
	CategoryOrderTip         = "order_tip"
	CategoryWithdrawal       = "withdrawal"
	CategoryWithdrawalRefund = "withdrawal_refund"
)

// WalletLog запись журнала, парная каждому изменению баланса.
type WalletLog struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	Amount      int64      `db:"amount" json:"amount"`
	Type        string     `db:"type" json:"type"`
	Category    string     `db:"category" json:"category"`
	ReferenceID *uuid.UUID `db:"reference_id" json:"reference_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Reconciliation сверка баланса с журналом.
type Reconciliation struct {
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	Balance    int64     `db:"balance" json:"balance"`
	Credits    int64     `db:"credits" json:"credits"`
	Debits     int64     `db:"debits" json:"debits"`
	Consistent bool      `db:"-" json:"consistent"`
}

// Check заполняет Consistent.
func (r *Reconciliation) Check() {
	r.Consistent = r.Balance == r.Credits-r.Debits
}
