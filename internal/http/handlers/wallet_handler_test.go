package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/titipin/titip-backend/internal/domain/entity"
	"github.com/titipin/titip-backend/internal/domain/valueobject"
	"github.com/titipin/titip-backend/internal/dto"
	"github.com/titipin/titip-backend/internal/models"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
	"github.com/titipin/titip-backend/internal/usecase/wallet"
)

func walletRouter(userID uuid.UUID) (*mockWallet, *mockWalletQueries, http.Handler) {
	w, queries := new(mockWallet), new(mockWalletQueries)
	h := NewWalletHandler(w, queries)

	r := newTestRouter(userID)
	r.GET("/wallet/balance", h.Balance)
	r.GET("/wallet/history", h.History)
	r.POST("/wallet/topup", h.TopUp)
	r.POST("/wallet/withdrawals", h.RequestWithdrawal)
	r.GET("/wallet/withdrawals", h.ListWithdrawals)
	return w, queries, r
}

func TestWalletHandler_Balance(t *testing.T) {
	userID := uuid.New()
	_, queries, r := walletRouter(userID)
	queries.On("Balance", mock.Anything, userID).Return(int64(150000), nil)

	w := doJSON(r, http.MethodGet, "/wallet/balance", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"balance":150000}}`, w.Body.String())
}

func TestWalletHandler_History(t *testing.T) {
	userID := uuid.New()
	_, queries, r := walletRouter(userID)
	queries.On("History", mock.Anything, userID, 5, 10).Return([]models.WalletLog{
		{ID: uuid.New(), UserID: userID, Amount: 50000, Type: models.WalletLogCredit, Category: models.CategoryTopUp},
	}, nil)

	w := doJSON(r, http.MethodGet, "/wallet/history?limit=5&offset=10", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var logs []models.WalletLog
	decode(t, w, &logs)
	require.Len(t, logs, 1)
	assert.Equal(t, int64(50000), logs[0].Amount)
}

func TestWalletHandler_TopUp(t *testing.T) {
	userID := uuid.New()
	svc, _, r := walletRouter(userID)
	svc.On("TopUp", mock.Anything, userID, int64(100000)).Return(int64(250000), nil)
	svc.On("TopUp", mock.Anything, userID, int64(-5)).
		Return(int64(0), apperror.New(apperror.ErrCodeInvalidAmount, "сумма должна быть положительной"))

	w := doJSON(r, http.MethodPost, "/wallet/topup", dto.TopUpRequest{Amount: 100000})
	require.Equal(t, http.StatusOK, w.Code)
	var balance dto.BalanceResponse
	decode(t, w, &balance)
	assert.Equal(t, int64(250000), balance.Balance)

	w = doJSON(r, http.MethodPost, "/wallet/topup", dto.TopUpRequest{Amount: -5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_AMOUNT", decode(t, w, nil).Error.Code)
}

func TestWalletHandler_RequestWithdrawal(t *testing.T) {
	userID := uuid.New()
	svc, _, r := walletRouter(userID)

	in := wallet.WithdrawalInput{
		UserID:        userID,
		Amount:        75000,
		BankName:      "BCA",
		AccountNumber: "1234567890",
		AccountHolder: "Budi Santoso",
	}
	svc.On("RequestWithdrawal", mock.Anything, in).Return(&entity.Withdrawal{
		ID:            uuid.New(),
		UserID:        userID,
		Amount:        75000,
		BankName:      "BCA",
		AccountNumber: "1234567890",
		AccountHolder: "Budi Santoso",
		Status:        valueobject.WithdrawalStatusPending,
		CreatedAt:     time.Now(),
	}, nil)

	w := doJSON(r, http.MethodPost, "/wallet/withdrawals", dto.WithdrawalRequest{
		Amount: 75000, BankName: "BCA", AccountNumber: "1234567890", AccountHolder: "Budi Santoso",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp dto.WithdrawalResponse
	decode(t, w, &resp)
	assert.Equal(t, "pending", resp.Status)
	assert.Nil(t, resp.ProcessedAt)
}

func TestWalletHandler_RequestWithdrawal_MissingDetails(t *testing.T) {
	svc, _, r := walletRouter(uuid.New())

	w := doJSON(r, http.MethodPost, "/wallet/withdrawals", dto.WithdrawalRequest{Amount: 75000, BankName: "BCA"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "RequestWithdrawal", mock.Anything, mock.Anything)
}

func TestWalletHandler_ListWithdrawals(t *testing.T) {
	userID := uuid.New()
	svc, _, r := walletRouter(userID)
	svc.On("ListMyWithdrawals", mock.Anything, userID, 20, 0).Return([]models.Withdrawal{}, nil)

	w := doJSON(r, http.MethodGet, "/wallet/withdrawals", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
