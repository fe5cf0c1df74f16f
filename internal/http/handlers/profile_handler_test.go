package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/titipin/titip-backend/internal/dto"
	"github.com/titipin/titip-backend/internal/models"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
)

type mockProfiles struct {
	mock.Mock
}

func (m *mockProfiles) profile(args mock.Arguments) (*models.Profile, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *mockProfiles) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return m.profile(m.Called(ctx, userID))
}

func (m *mockProfiles) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName string) (*models.Profile, error) {
	return m.profile(m.Called(ctx, userID, fullName))
}

func (m *mockProfiles) UpdateAvatar(ctx context.Context, userID uuid.UUID, data []byte) (*models.Profile, error) {
	return m.profile(m.Called(ctx, userID, data))
}

func profileRouter(userID uuid.UUID) (*mockProfiles, http.Handler) {
	profiles := &mockProfiles{}
	h := NewProfileHandler(profiles, testUploadLimit)

	r := newTestRouter(userID)
	r.GET("/profile", h.GetMe)
	r.PUT("/profile", h.UpdateMe)
	r.POST("/profile/avatar", h.UploadAvatar)
	return profiles, r
}

func TestProfileHandler_GetMe(t *testing.T) {
	userID := uuid.New()
	profiles, r := profileRouter(userID)
	profiles.On("GetProfile", mock.Anything, userID).Return(&models.Profile{
		UserID: userID, FullName: "Budi Santoso", Balance: 150_000,
	}, nil)

	w := doJSON(r, http.MethodGet, "/profile", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var profile models.Profile
	decode(t, w, &profile)
	assert.Equal(t, "Budi Santoso", profile.FullName)
	assert.Equal(t, int64(150_000), profile.Balance)
}

func TestProfileHandler_GetMe_Anonymous(t *testing.T) {
	profiles, r := profileRouter(uuid.Nil)

	w := doJSON(r, http.MethodGet, "/profile", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	profiles.AssertNotCalled(t, "GetProfile", mock.Anything, mock.Anything)
}

func TestProfileHandler_UpdateMe(t *testing.T) {
	userID := uuid.New()

	t.Run("обновляет имя", func(t *testing.T) {
		profiles, r := profileRouter(userID)
		profiles.On("UpdateProfile", mock.Anything, userID, "Siti Aminah").Return(&models.Profile{
			UserID: userID, FullName: "Siti Aminah",
		}, nil)

		w := doJSON(r, http.MethodPut, "/profile", dto.UpdateProfileRequest{FullName: "Siti Aminah"})

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("пустое тело", func(t *testing.T) {
		profiles, r := profileRouter(userID)

		w := doJSON(r, http.MethodPut, "/profile", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		profiles.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ошибка валидации сервиса", func(t *testing.T) {
		profiles, r := profileRouter(userID)
		profiles.On("UpdateProfile", mock.Anything, userID, "x").
			Return(nil, apperror.New(apperror.ErrCodeValidation, "имя слишком короткое"))

		w := doJSON(r, http.MethodPut, "/profile", dto.UpdateProfileRequest{FullName: "x"})

		require.Equal(t, http.StatusBadRequest, w.Code)
		env := decode(t, w, nil)
		require.NotNil(t, env.Error)
		assert.Equal(t, string(apperror.ErrCodeValidation), env.Error.Code)
	})
}

func TestProfileHandler_UploadAvatar(t *testing.T) {
	userID := uuid.New()
	content := []byte("\x89PNG\r\n\x1a\nfake")

	profiles, r := profileRouter(userID)
	avatar := "/media/avatars/a.png"
	profiles.On("UpdateAvatar", mock.Anything, userID, content).Return(&models.Profile{
		UserID: userID, AvatarURL: &avatar,
	}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "/profile/avatar", content))

	require.Equal(t, http.StatusOK, w.Code)
	var profile models.Profile
	decode(t, w, &profile)
	require.NotNil(t, profile.AvatarURL)
	assert.Equal(t, avatar, *profile.AvatarURL)
}

func TestProfileHandler_UploadAvatar_TooLarge(t *testing.T) {
	profiles, r := profileRouter(uuid.New())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "/profile/avatar", make([]byte, testUploadLimit+1)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	profiles.AssertNotCalled(t, "UpdateAvatar", mock.Anything, mock.Anything, mock.Anything)
}
