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

// MessageStore хранилище сообщений чата заказа.
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	ListByOrder(ctx context.Context, orderID uuid.UUID, limit, offset int) ([]models.Message, error)
}

// ChatService переписка заказчика и путешественника внутри заказа.
type ChatService struct {
	orders       OrderReader
	messages     MessageStore
	files        storage.FileStorage
	pub          domainrepo.EventPublisher
	uploadPolicy retry.Policy
	mediaPrefix  string
	log          *logrus.Entry
}

func NewChatService(
	orders OrderReader,
	messages MessageStore,
	files storage.FileStorage,
	pub domainrepo.EventPublisher,
	uploadPolicy retry.Policy,
) *ChatService {
	return &ChatService{
		orders:       orders,
		messages:     messages,
		files:        files,
		pub:          pub,
		uploadPolicy: uploadPolicy,
		mediaPrefix:  "/media/",
		log:          logger.WithComponent("chat"),
	}
}

// SendMessage добавляет текстовое сообщение и отправляет его второй стороне.
func (s *ChatService) SendMessage(ctx context.Context, orderID, senderID uuid.UUID, content string) (*models.Message, error) {
	order, err := s.chatOrder(ctx, orderID, senderID)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateMessageContent(content); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	return s.post(ctx, order, senderID, strings.TrimSpace(content), models.MessageTypeText)
}

// UploadImage сохраняет изображение и публикует его путь как сообщение типа image.
func (s *ChatService) UploadImage(ctx context.Context, orderID, senderID uuid.UUID, data []byte) (*models.Message, error) {
	order, err := s.chatOrder(ctx, orderID, senderID)
	if err != nil {
		return nil, err
	}

	path, err := storage.SaveImage(ctx, s.files, s.uploadPolicy, senderID, data)
	if err != nil {
		return nil, uploadError(err)
	}

	return s.post(ctx, order, senderID, s.mediaPrefix+path, models.MessageTypeImage)
}

// ListMessages возвращает переписку по возрастанию времени. Только участникам.
func (s *ChatService) ListMessages(ctx context.Context, orderID, caller uuid.UUID, limit, offset int) ([]models.Message, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isOrderParticipant(order, caller) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "чат доступен только участникам заказа")
	}

	if limit <= 0 || limit > 500 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	messages, err := s.messages.ListByOrder(ctx, orderID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить сообщения")
	}
	return messages, nil
}

func (s *ChatService) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказ")
	}
	return order, nil
}

// chatOrder проверяет, что отправитель участник и у заказа уже есть вторая сторона.
func (s *ChatService) chatOrder(ctx context.Context, orderID, senderID uuid.UUID) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isOrderParticipant(order, senderID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "писать в чат могут только участники заказа")
	}
	if order.TravelerID == nil {
		return nil, apperror.New(apperror.ErrCodeIllegalTransition, "у заказа ещё нет путешественника")
	}
	return order, nil
}

func (s *ChatService) post(ctx context.Context, order *models.Order, senderID uuid.UUID, content, msgType string) (*models.Message, error) {
	msg := &models.Message{
		OrderID:  order.ID,
		SenderID: senderID,
		Content:  content,
		Type:     msgType,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить сообщение")
	}

	s.log.WithFields(logrus.Fields{"order_id": order.ID, "user_id": senderID, "type": msgType}).Debug("сообщение отправлено")

	if s.pub != nil {
		s.pub.PublishMessage(ctx, entity.Message{
			ID:        msg.ID,
			OrderID:   msg.OrderID,
			SenderID:  msg.SenderID,
			Content:   msg.Content,
			Type:      msg.Type,
			CreatedAt: msg.CreatedAt,
		}, []uuid.UUID{counterpart(order, senderID)})
	}
	return msg, nil
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, storage.ErrUnsupportedType):
		return apperror.New(apperror.ErrCodeValidation, "допускаются только изображения jpeg, png, webp или gif")
	case errors.Is(err, storage.ErrTooLarge):
		return apperror.New(apperror.ErrCodeValidation, "файл слишком большой")
	default:
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сохранить файл")
	}
}
