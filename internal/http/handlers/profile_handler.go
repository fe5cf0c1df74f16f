package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/titipin/titip-backend/internal/dto"
	"github.com/titipin/titip-backend/internal/http/response"
	"github.com/titipin/titip-backend/internal/models"
)

type ProfileUseCase interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, fullName string) (*models.Profile, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, data []byte) (*models.Profile, error)
}

// ProfileHandler профиль текущего пользователя.
type ProfileHandler struct {
	profiles       ProfileUseCase
	maxUploadBytes int64
}

func NewProfileHandler(profiles ProfileUseCase, maxUploadBytes int64) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, maxUploadBytes: maxUploadBytes}
}

// GetMe обрабатывает GET /profile.
func (h *ProfileHandler) GetMe(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	profile, err := h.profiles.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, profile)
}

// UpdateMe обрабатывает PUT /profile.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.profiles.UpdateProfile(c.Request.Context(), userID, req.FullName)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, profile)
}

// UploadAvatar обрабатывает POST /profile/avatar (multipart, поле file).
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	data, ok := readUpload(c, h.maxUploadBytes)
	if !ok {
		return
	}

	profile, err := h.profiles.UpdateAvatar(c.Request.Context(), userID, data)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, profile)
}
