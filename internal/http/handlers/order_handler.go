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
	"github.com/titipin/titip-backend/internal/usecase/escrow"
)

// EscrowUseCase денежные операции над заказом.
type EscrowUseCase interface {
	CreateOrder(ctx context.Context, input escrow.CreateOrderInput) (*entity.Order, error)
	CancelOrder(ctx context.Context, orderID, caller uuid.UUID) (*entity.Order, error)
	TakeOrder(ctx context.Context, orderID, caller uuid.UUID) (*entity.Order, error)
	AdvanceDelivery(ctx context.Context, orderID, caller uuid.UUID, target string) (*entity.Order, error)
	CompleteOrder(ctx context.Context, orderID, caller uuid.UUID) (*entity.Order, error)
}

// OrderQueries чтение заказов.
type OrderQueries interface {
	ListMarket(ctx context.Context, caller uuid.UUID, from, to string, limit, offset int) ([]models.Order, error)
	MarketLocations(ctx context.Context) (*models.MarketLocations, error)
	MyRequests(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error)
	MyJobs(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error)
	GetOrder(ctx context.Context, id, caller uuid.UUID) (*models.Order, error)
}

type OrderHandler struct {
	escrow  EscrowUseCase
	queries OrderQueries
}

func NewOrderHandler(escrow EscrowUseCase, queries OrderQueries) *OrderHandler {
	return &OrderHandler{escrow: escrow, queries: queries}
}

// CreateOrder обрабатывает POST /orders. Цена и чаевые удерживаются сразу.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.escrow.CreateOrder(c.Request.Context(), escrow.CreateOrderInput{
		RequesterID:  userID,
		Item:         req.Item,
		Price:        req.Price,
		Tip:          req.Tip,
		FromLocation: req.FromLocation,
		ToLocation:   req.ToLocation,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusCreated, dto.NewOrderResponse(order))
}

// ListMarket обрабатывает GET /orders/market?from=&to=.
func (h *OrderHandler) ListMarket(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	limit, offset := common.GetPagination(c)
	orders, err := h.queries.ListMarket(c.Request.Context(), userID, c.Query("from"), c.Query("to"), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.OrdersFromModels(orders))
}

func (h *OrderHandler) MarketLocations(c *gin.Context) {
	locations, err := h.queries.MarketLocations(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, locations)
}

func (h *OrderHandler) MyRequests(c *gin.Context) {
	h.listMine(c, h.queries.MyRequests)
}

func (h *OrderHandler) MyJobs(c *gin.Context) {
	h.listMine(c, h.queries.MyJobs)
}

func (h *OrderHandler) listMine(c *gin.Context, list func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error)) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	limit, offset := common.GetPagination(c)
	orders, err := list(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.OrdersFromModels(orders))
}

// GetOrder обрабатывает GET /orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	order, err := h.queries.GetOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.OrderFromModel(order))
}

// CancelOrder обрабатывает POST /orders/:id/cancel.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	h.transition(c, h.escrow.CancelOrder)
}

// TakeOrder обрабатывает POST /orders/:id/take.
func (h *OrderHandler) TakeOrder(c *gin.Context) {
	h.transition(c, h.escrow.TakeOrder)
}

// CompleteOrder обрабатывает POST /orders/:id/complete.
func (h *OrderHandler) CompleteOrder(c *gin.Context) {
	h.transition(c, h.escrow.CompleteOrder)
}

// AdvanceDelivery обрабатывает POST /orders/:id/advance.
func (h *OrderHandler) AdvanceDelivery(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req dto.AdvanceOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.escrow.AdvanceDelivery(c.Request.Context(), orderID, userID, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.NewOrderResponse(order))
}

func (h *OrderHandler) transition(c *gin.Context, op func(ctx context.Context, orderID, caller uuid.UUID) (*entity.Order, error)) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	order, err := op(c.Request.Context(), orderID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.NewOrderResponse(order))
}
