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

type ChatUseCase interface {
	SendMessage(ctx context.Context, orderID, senderID uuid.UUID, content string) (*models.Message, error)
	UploadImage(ctx context.Context, orderID, senderID uuid.UUID, data []byte) (*models.Message, error)
	ListMessages(ctx context.Context, orderID, caller uuid.UUID, limit, offset int) ([]models.Message, error)
}

// ChatHandler переписка внутри заказа.
type ChatHandler struct {
	chat           ChatUseCase
	maxUploadBytes int64
}

func NewChatHandler(chat ChatUseCase, maxUploadBytes int64) *ChatHandler {
	return &ChatHandler{chat: chat, maxUploadBytes: maxUploadBytes}
}

// ListMessages обрабатывает GET /orders/:id/messages.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	messages, err := h.chat.ListMessages(c.Request.Context(), orderID, userID,
		common.ParseIntQuery(c, "limit", 200), common.ParseIntQuery(c, "offset", 0))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, messages)
}

// SendMessage обрабатывает POST /orders/:id/messages.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.chat.SendMessage(c.Request.Context(), orderID, userID, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusCreated, msg)
}

// UploadImage обрабатывает POST /orders/:id/messages/image (multipart, поле file).
func (h *ChatHandler) UploadImage(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	data, ok := readUpload(c, h.maxUploadBytes)
	if !ok {
		return
	}

	msg, err := h.chat.UploadImage(c.Request.Context(), orderID, userID, data)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusCreated, msg)
}
