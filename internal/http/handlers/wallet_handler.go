package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/titipin/titip-backend/internal/domain/entity"
	"github.com/titipin/titip-backend/internal/dto"
	"github.com/titipin/titip-backend/internal/http/handlers/common"
	"github.com/titipin/titip-backend/internal/http/response"
	"github.com/titipin/titip-backend/internal/models"
	"github.com/titipin/titip-backend/internal/usecase/wallet"
)

// WalletUseCase пополнение и заявки на вывод.
type WalletUseCase interface {
	TopUp(ctx context.Context, userID uuid.UUID, amount int64) (int64, error)
	RequestWithdrawal(ctx context.Context, in wallet.WithdrawalInput) (*entity.Withdrawal, error)
	ListMyWithdrawals(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Withdrawal, error)
}

type WalletQueries interface {
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletLog, error)
}

type WalletHandler struct {
	wallet  WalletUseCase
	queries WalletQueries
}

func NewWalletHandler(w WalletUseCase, queries WalletQueries) *WalletHandler {
	return &WalletHandler{wallet: w, queries: queries}
}

// Balance обрабатывает GET /wallet/balance.
func (h *WalletHandler) Balance(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	balance, err := h.queries.Balance(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.BalanceResponse{Balance: balance})
}

// History обрабатывает GET /wallet/history.
func (h *WalletHandler) History(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	limit, offset := common.GetPagination(c)
	logs, err := h.queries.History(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, logs)
}

// TopUp обрабатывает POST /wallet/topup. Платёжный шлюз здесь не участвует.
func (h *WalletHandler) TopUp(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	var req dto.TopUpRequest
	if !bindJSON(c, &req) {
		return
	}

	balance, err := h.wallet.TopUp(c.Request.Context(), userID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.BalanceResponse{Balance: balance})
}

// RequestWithdrawal обрабатывает POST /wallet/withdrawals.
func (h *WalletHandler) RequestWithdrawal(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	var req dto.WithdrawalRequest
	if !bindJSON(c, &req) {
		return
	}

	w, err := h.wallet.RequestWithdrawal(c.Request.Context(), wallet.WithdrawalInput{
		UserID:        userID,
		Amount:        req.Amount,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		AccountHolder: req.AccountHolder,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusCreated, dto.NewWithdrawalResponse(w))
}

// ListWithdrawals обрабатывает GET /wallet/withdrawals.
func (h *WalletHandler) ListWithdrawals(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	limit, offset := common.GetPagination(c)
	list, err := h.wallet.ListMyWithdrawals(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, list)
}
