package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/titipin/titip-backend/internal/models"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
)

// LedgerReader чтение кошелька вне денежных транзакций.
type LedgerReader interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	ListLogs(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletLog, error)
	Reconcile(ctx context.Context, userID uuid.UUID) (*models.Reconciliation, error)
	ReconcileAll(ctx context.Context) ([]models.Reconciliation, error)
}

type WalletQueryService struct {
	ledger LedgerReader
}

func NewWalletQueryService(ledger LedgerReader) *WalletQueryService {
	return &WalletQueryService{ledger: ledger}
}

// Balance текущий баланс в минимальных единицах.
func (s *WalletQueryService) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	balance, err := s.ledger.GetBalance(ctx, userID)
	if err != nil {
		return 0, userError(err, "не удалось получить баланс")
	}
	return balance, nil
}

// History журнал кошелька, новые записи первыми.
func (s *WalletQueryService) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletLog, error) {
	limit, offset = normalizePage(limit, offset)
	logs, err := s.ledger.ListLogs(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить историю кошелька")
	}
	return logs, nil
}

// Reconcile сверяет баланс пользователя с суммой журнала.
func (s *WalletQueryService) Reconcile(ctx context.Context, userID uuid.UUID) (*models.Reconciliation, error) {
	rec, err := s.ledger.Reconcile(ctx, userID)
	if err != nil {
		return nil, userError(err, "не удалось сверить баланс")
	}
	rec.Check()
	return rec, nil
}

// Mismatches возвращает пользователей, у которых баланс расходится с журналом.
func (s *WalletQueryService) Mismatches(ctx context.Context) ([]models.Reconciliation, error) {
	all, err := s.ledger.ReconcileAll(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сверить балансы")
	}

	mismatches := make([]models.Reconciliation, 0)
	for _, rec := range all {
		rec.Check()
		if !rec.Consistent {
			mismatches = append(mismatches, rec)
		}
	}
	return mismatches, nil
}
