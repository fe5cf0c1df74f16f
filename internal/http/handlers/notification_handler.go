package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/titipin/titip-backend/internal/dto"
	"github.com/titipin/titip-backend/internal/http/handlers/common"
	"github.com/titipin/titip-backend/internal/http/response"
	"github.com/titipin/titip-backend/internal/models"
)

type NotificationUseCase interface {
	ListNotifications(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteNotification(ctx context.Context, id, userID uuid.UUID) error
	DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// NotificationHandler обрабатывает HTTP запросы для уведомлений.
type NotificationHandler struct {
	notifications NotificationUseCase
}

func NewNotificationHandler(notifications NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// ListNotifications обрабатывает GET /notifications?unread_only=true.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	limit, offset := common.GetPagination(c)
	items, err := h.notifications.ListNotifications(c.Request.Context(), userID, limit, offset, c.Query("unread_only") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, items)
}

// CountUnread обрабатывает GET /notifications/unread/count.
func (h *NotificationHandler) CountUnread(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	count, err := h.notifications.CountUnread(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.CountResponse{Count: int64(count)})
}

// MarkAsRead обрабатывает PUT /notifications/:id/read.
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.notifications.MarkAsRead(c.Request.Context(), id, userID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkAllAsRead обрабатывает PUT /notifications/read-all.
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	n, err := h.notifications.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.CountResponse{Count: n})
}

// DeleteNotification обрабатывает DELETE /notifications/:id.
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.notifications.DeleteNotification(c.Request.Context(), id, userID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteAll обрабатывает DELETE /notifications.
func (h *NotificationHandler) DeleteAll(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	n, err := h.notifications.DeleteAll(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.CountResponse{Count: n})
}
