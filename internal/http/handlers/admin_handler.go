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
)

// WithdrawalAdmin обработка заявок на вывод.
type WithdrawalAdmin interface {
	ListPending(ctx context.Context, limit, offset int) ([]models.Withdrawal, error)
	ApproveWithdrawal(ctx context.Context, id, adminID uuid.UUID) (*entity.Withdrawal, error)
	RejectWithdrawal(ctx context.Context, id, adminID uuid.UUID) (*entity.Withdrawal, error)
}

type UserAdmin interface {
	ListUnverified(ctx context.Context, limit, offset int) ([]models.UserWithProfile, error)
	VerifyUser(ctx context.Context, userID, adminID uuid.UUID) error
}

// AdminHandler маршруты /admin. Роль проверяет middleware.RequireRole.
type AdminHandler struct {
	withdrawals WithdrawalAdmin
	users       UserAdmin
}

func NewAdminHandler(withdrawals WithdrawalAdmin, users UserAdmin) *AdminHandler {
	return &AdminHandler{withdrawals: withdrawals, users: users}
}

// ListPendingWithdrawals обрабатывает GET /admin/withdrawals/pending.
func (h *AdminHandler) ListPendingWithdrawals(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	list, err := h.withdrawals.ListPending(c.Request.Context(), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, list)
}

// ApproveWithdrawal обрабатывает POST /admin/withdrawals/:id/approve.
func (h *AdminHandler) ApproveWithdrawal(c *gin.Context) {
	h.processWithdrawal(c, h.withdrawals.ApproveWithdrawal)
}

// RejectWithdrawal обрабатывает POST /admin/withdrawals/:id/reject.
func (h *AdminHandler) RejectWithdrawal(c *gin.Context) {
	h.processWithdrawal(c, h.withdrawals.RejectWithdrawal)
}

func (h *AdminHandler) processWithdrawal(c *gin.Context, op func(ctx context.Context, id, adminID uuid.UUID) (*entity.Withdrawal, error)) {
	adminID, ok := userFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	w, err := op(c.Request.Context(), id, adminID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.NewWithdrawalResponse(w))
}

// ListUnverifiedUsers обрабатывает GET /admin/users/unverified.
func (h *AdminHandler) ListUnverifiedUsers(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	users, err := h.users.ListUnverified(c.Request.Context(), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, users)
}

// VerifyUser обрабатывает POST /admin/users/:id/verify.
func (h *AdminHandler) VerifyUser(c *gin.Context) {
	adminID, ok := userFromContext(c)
	if !ok {
		return
	}
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.users.VerifyUser(c.Request.Context(), userID, adminID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
