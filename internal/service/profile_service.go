package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/titipin/titip-backend/internal/domain/entity"
	domainrepo "github.com/titipin/titip-backend/internal/domain/repository"
	"github.com/titipin/titip-backend/internal/logger"
	"github.com/titipin/titip-backend/internal/models"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
	"github.com/titipin/titip-backend/internal/pkg/retry"
	"github.com/titipin/titip-backend/internal/repository"
	"github.com/titipin/titip-backend/internal/storage"
	"github.com/titipin/titip-backend/internal/validation"
)

type ProfileRepository interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, fullName string, avatarURL *string) (*models.Profile, error)
	ListUnverified(ctx context.Context, limit, offset int) ([]models.UserWithProfile, error)
	UpdateRoleByEmail(ctx context.Context, email, role string) (*models.User, error)
}

type UserVerifier interface {
	SetVerified(ctx context.Context, userID uuid.UUID) error
}

type NotificationWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// VerifyTxRunner выполняет fn в одной транзакции: отметка профиля и уведомление.
type VerifyTxRunner func(ctx context.Context, fn func(users UserVerifier, notifications NotificationWriter) error) error

// ProfileService профиль пользователя и административные действия над пользователями.
type ProfileService struct {
	repo         ProfileRepository
	inTx         VerifyTxRunner
	files        storage.FileStorage
	pub          domainrepo.EventPublisher
	uploadPolicy retry.Policy
	mediaPrefix  string
	log          *logrus.Entry
}

func NewProfileService(
	repo ProfileRepository,
	inTx VerifyTxRunner,
	files storage.FileStorage,
	pub domainrepo.EventPublisher,
	uploadPolicy retry.Policy,
) *ProfileService {
	return &ProfileService{
		repo:         repo,
		inTx:         inTx,
		files:        files,
		pub:          pub,
		uploadPolicy: uploadPolicy,
		mediaPrefix:  "/media/",
		log:          logger.WithComponent("profile"),
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, userError(err, "не удалось получить профиль")
	}
	return profile, nil
}

// UpdateProfile меняет отображаемое имя. Аватар не трогается.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName string) (*models.Profile, error) {
	fullName = strings.TrimSpace(fullName)
	if err := validation.ValidateFullName(fullName); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	profile, err := s.repo.UpdateProfile(ctx, userID, fullName, nil)
	if err != nil {
		return nil, userError(err, "не удалось обновить профиль")
	}
	return profile, nil
}

// UpdateAvatar сохраняет изображение и записывает его публичный путь в профиль.
func (s *ProfileService) UpdateAvatar(ctx context.Context, userID uuid.UUID, data []byte) (*models.Profile, error) {
	current, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, userError(err, "не удалось получить профиль")
	}

	path, err := storage.SaveImage(ctx, s.files, s.uploadPolicy, userID, data)
	if err != nil {
		return nil, uploadError(err)
	}

	avatarURL := s.mediaPrefix + path
	profile, err := s.repo.UpdateProfile(ctx, userID, current.FullName, &avatarURL)
	if err != nil {
		if delErr := s.files.Delete(ctx, path); delErr != nil {
			s.log.WithError(delErr).WithField("path", path).Warn("не удалось удалить осиротевший файл")
		}
		return nil, userError(err, "не удалось обновить аватар")
	}
	return profile, nil
}

func (s *ProfileService) ListUnverified(ctx context.Context, limit, offset int) ([]models.UserWithProfile, error) {
	limit, offset = normalizePage(limit, offset)
	users, err := s.repo.ListUnverified(ctx, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить пользователей")
	}
	return users, nil
}

// VerifyUser отмечает профиль подтверждённым и уведомляет пользователя.
// Уведомление публикуется только после коммита. Повторный вызов даёт ALREADY_PROCESSED
// без нового уведомления.
func (s *ProfileService) VerifyUser(ctx context.Context, userID, adminID uuid.UUID) error {
	n := entity.NewNotification(userID, "Профиль подтверждён", "Администратор подтвердил ваш профиль", "/profile")

	err := s.inTx(ctx, func(users UserVerifier, notifications NotificationWriter) error {
		if err := users.SetVerified(ctx, userID); err != nil {
			return err
		}
		return notifications.Create(ctx, &models.Notification{
			ID:      n.ID,
			UserID:  n.UserID,
			Title:   n.Title,
			Message: n.Message,
			Link:    n.Link,
		})
	})
	if err != nil {
		return userError(err, "не удалось подтвердить пользователя")
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "admin_id": adminID}).Info("пользователь подтверждён")
	if s.pub != nil {
		s.pub.PublishNotification(ctx, *n)
	}
	return nil
}

// PromoteUser выдаёт роль администратора. Доступно только из titipctl.
func (s *ProfileService) PromoteUser(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	user, err := s.repo.UpdateRoleByEmail(ctx, email, models.RoleAdmin)
	if err != nil {
		return nil, userError(err, "не удалось изменить роль")
	}
	s.log.WithField("user_id", user.ID).Info("выдана роль администратора")
	return user, nil
}

func userError(err error, message string) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperror.ErrUserNotFound
	}
	if errors.Is(err, repository.ErrAlreadyVerified) {
		return apperror.New(apperror.ErrCodeAlreadyProcessed, "профиль уже подтверждён")
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, message)
}
