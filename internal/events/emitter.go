package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/titipin/titip-backend/internal/domain/entity"
	"github.com/titipin/titip-backend/internal/goroutine"
	"github.com/titipin/titip-backend/internal/logger"
	"github.com/titipin/titip-backend/internal/metrics"
)

// RealtimeSink доставка конкретному пользователю по websocket.
type RealtimeSink interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// NotificationEvent тело события notification.created.
type NotificationEvent struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      *string   `json:"link,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageEvent тело события message.created.
type MessageEvent struct {
	ID         uuid.UUID   `json:"id"`
	OrderID    uuid.UUID   `json:"order_id"`
	SenderID   uuid.UUID   `json:"sender_id"`
	Content    string      `json:"content"`
	Type       string      `json:"type"`
	CreatedAt  time.Time   `json:"created_at"`
	Recipients []uuid.UUID `json:"recipients,omitempty"`
}

func NewNotificationEvent(n entity.Notification) NotificationEvent {
	return NotificationEvent{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

func NewMessageEvent(m entity.Message, recipients []uuid.UUID) MessageEvent {
	return MessageEvent{
		ID:         m.ID,
		OrderID:    m.OrderID,
		SenderID:   m.SenderID,
		Content:    m.Content,
		Type:       m.Type,
		CreatedAt:  m.CreatedAt,
		Recipients: recipients,
	}
}

// Emitter рассылает события в websocket-хаб и в шину. Доставка идёт в одной
// фоновой горутине, поэтому события приходят в порядке публикации.
// Ошибки доставки только логируются.
type Emitter struct {
	realtime RealtimeSink
	bus      BusPublisher
	timeout  time.Duration
	log      *logrus.Entry

	dispatch  func(fn func())
	queue     chan func()
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// DefaultQueueSize ёмкость очереди доставки.
const DefaultQueueSize = 1024

func NewEmitter(realtime RealtimeSink, bus BusPublisher) *Emitter {
	if bus == nil {
		bus = NoopBus{}
	}
	e := &Emitter{
		realtime: realtime,
		bus:      bus,
		timeout:  5 * time.Second,
		log:      logger.WithComponent("events"),
		queue:    make(chan func(), DefaultQueueSize),
		done:     make(chan struct{}),
	}
	e.dispatch = e.enqueue
	return e
}

// Synchronous заставляет Emitter доставлять в текущей горутине. Нужен тестам и CLI.
func (e *Emitter) Synchronous() *Emitter {
	e.dispatch = func(fn func()) { fn() }
	return e
}

// Close останавливает фоновую доставку. Неотправленные события теряются.
func (e *Emitter) Close() {
	e.closeOnce.Do(func() { close(e.done) })
}

func (e *Emitter) PublishNotification(ctx context.Context, n entity.Notification) {
	event := NewNotificationEvent(n)
	e.dispatch(func() {
		e.toUser(n.UserID, "notification", event)
		e.toBus(RoutingNotificationCreated, event)
	})
}

func (e *Emitter) PublishMessage(ctx context.Context, m entity.Message, recipients []uuid.UUID) {
	event := NewMessageEvent(m, recipients)
	e.dispatch(func() {
		for _, userID := range recipients {
			e.toUser(userID, "message", event)
		}
		e.toBus(RoutingMessageCreated, event)
	})
}

// enqueue не блокирует вызывающего: при переполненной очереди событие отбрасывается.
func (e *Emitter) enqueue(fn func()) {
	e.startOnce.Do(func() { goroutine.SafeGo(e.deliverLoop) })

	select {
	case <-e.done:
		return
	default:
	}

	select {
	case e.queue <- fn:
	default:
		metrics.EventsPublished.WithLabelValues("queue", "dropped").Inc()
		e.log.Warn("очередь доставки событий переполнена, событие отброшено")
	}
}

func (e *Emitter) deliverLoop() {
	for {
		select {
		case <-e.done:
			return
		case fn := <-e.queue:
			e.deliver(fn)
		}
	}
}

// deliver изолирует panic одной доставки, чтобы цикл продолжал работу.
func (e *Emitter) deliver(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.log.WithField("panic", r).Error("panic при доставке события")
		}
	}()
	fn()
}

func (e *Emitter) toUser(userID uuid.UUID, event string, data any) {
	if e.realtime == nil {
		return
	}
	if err := e.realtime.BroadcastToUser(userID, event, data); err != nil {
		metrics.EventsPublished.WithLabelValues("ws", "error").Inc()
		e.log.WithError(err).WithField("user_id", userID).Warn("realtime доставка не удалась")
		return
	}
	metrics.EventsPublished.WithLabelValues("ws", "ok").Inc()
}

// toBus использует собственный контекст: запрос к этому моменту уже может завершиться.
func (e *Emitter) toBus(routingKey string, body interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	if err := e.bus.Publish(ctx, routingKey, body); err != nil {
		metrics.EventsPublished.WithLabelValues("bus", "error").Inc()
		e.log.WithError(err).WithField("routing_key", routingKey).Warn("публикация в шину не удалась")
		return
	}
	metrics.EventsPublished.WithLabelValues("bus", "ok").Inc()
}
