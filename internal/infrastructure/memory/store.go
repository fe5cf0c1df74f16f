// Package memory хранит состояние кошельков и заказов в памяти процесса.
// Транзакции выполняются под общим мьютексом и откатываются снимком,
// что даёт сериализуемость. Используется в тестах сценариев.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/titipin/titip-backend/internal/domain/entity"
	"github.com/titipin/titip-backend/internal/domain/repository"
	"github.com/titipin/titip-backend/internal/models"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
	"github.com/titipin/titip-backend/internal/pkg/retry"
)

type state struct {
	balances      map[uuid.UUID]int64
	logs          []models.WalletLog
	orders        map[uuid.UUID]entity.Order
	withdrawals   map[uuid.UUID]entity.Withdrawal
	notifications []entity.Notification
	messages      []entity.Message
}

func (s *state) clone() *state {
	c := &state{
		balances:      make(map[uuid.UUID]int64, len(s.balances)),
		logs:          append([]models.WalletLog(nil), s.logs...),
		orders:        make(map[uuid.UUID]entity.Order, len(s.orders)),
		withdrawals:   make(map[uuid.UUID]entity.Withdrawal, len(s.withdrawals)),
		notifications: append([]entity.Notification(nil), s.notifications...),
		messages:      append([]entity.Message(nil), s.messages...),
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.withdrawals {
		c.withdrawals[k] = v
	}
	return c
}

// Store реализует repository.TxManager.
type Store struct {
	mu     sync.Mutex
	st     *state
	policy retry.Policy

	// failCommits заставляет ближайшие коммиты завершаться конфликтом.
	failCommits int
	attempts    int
}

func NewStore(policy retry.Policy) *Store {
	return &Store{
		st: &state{
			balances:    map[uuid.UUID]int64{},
			orders:      map[uuid.UUID]entity.Order{},
			withdrawals: map[uuid.UUID]entity.Withdrawal{},
		},
		policy: policy,
	}
}

// FailNextCommits имитирует n конфликтов сериализации подряд.
func (s *Store) FailNextCommits(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCommits = n
}

// Attempts число запусков транзакций с момента создания.
func (s *Store) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return retry.Do(ctx, s.policy, func(ctx context.Context, attempt int) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.attempts++
		work := s.st.clone()
		if err := fn(ctx, &memTx{st: work}); err != nil {
			return err
		}
		if s.failCommits > 0 {
			s.failCommits--
			return apperror.ErrTransactionFailed
		}
		s.st = work
		return nil
	})
}

// AddUser заводит пользователя; стартовый баланс проводится как пополнение.
// Повторный id считается ошибкой теста: обнуление баланса при живом журнале
// сломало бы сверку.
func (s *Store) AddUser(id uuid.UUID, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.balances[id]; ok {
		panic(fmt.Sprintf("memory: пользователь %s уже существует", id))
	}
	s.st.balances[id] = 0
	if balance > 0 {
		tx := &memTx{st: s.st}
		_, _ = tx.Ledger().Credit(context.Background(), repository.Entry{UserID: id, Amount: balance, Category: models.CategoryTopUp})
	}
}

func (s *Store) Balance(id uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.balances[id]
}

func (s *Store) Order(id uuid.UUID) (entity.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.st.orders[id]
	return o, ok
}

func (s *Store) Withdrawal(id uuid.UUID) (entity.Withdrawal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.st.withdrawals[id]
	return w, ok
}

func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.orders)
}

func (s *Store) Notifications(userID uuid.UUID) []entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Notification
	for _, n := range s.st.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (s *Store) Messages(orderID uuid.UUID) []entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Message
	for _, m := range s.st.messages {
		if m.OrderID == orderID {
			out = append(out, m)
		}
	}
	return out
}

func (s *Store) Logs(userID uuid.UUID) []models.WalletLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.WalletLog
	for _, l := range s.st.logs {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out
}

// Reconcile сверяет баланс с журналом так же, как SQL-версия.
func (s *Store) Reconcile(userID uuid.UUID) models.Reconciliation {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := models.Reconciliation{UserID: userID, Balance: s.st.balances[userID]}
	for _, l := range s.st.logs {
		if l.UserID != userID {
			continue
		}
		if l.Type == models.WalletLogCredit {
			rec.Credits += l.Amount
		} else {
			rec.Debits += l.Amount
		}
	}
	rec.Check()
	return rec
}
