package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/titipin/titip-backend/internal/logger"
)

// Ключи маршрутизации шины событий.
const (
	RoutingNotificationCreated = "notification.created"
	RoutingMessageCreated      = "message.created"
)

// BusPublisher публикует JSON-события в обменник.
type BusPublisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
	Close()
}

// NoopBus используется, когда RABBITMQ_URL не задан или брокер недоступен при старте.
type NoopBus struct{}

func (NoopBus) Publish(ctx context.Context, routingKey string, body interface{}) error {
	logger.WithComponent("rabbitmq").WithField("routing_key", routingKey).Debug("публикация пропущена: шина отключена")
	return nil
}

func (NoopBus) Close() {}

// amqpChannel часть *amqp091.Channel, которой пользуется шина.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	Close() error
}

type amqpConnection interface {
	Channel() (amqpChannel, error)
	IsClosed() bool
	Close() error
}

type amqpConn struct {
	*amqp091.Connection
}

func (c amqpConn) Channel() (amqpChannel, error) {
	return c.Connection.Channel()
}

type dialFunc func(url string) (amqpConnection, error)

func dialAMQP(url string) (amqpConnection, error) {
	conn, err := amqp091.DialConfig(url, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}
	return amqpConn{conn}, nil
}

// RabbitBus держит соединение и канал к RabbitMQ. Канал не потокобезопасен,
// поэтому публикации сериализуются мьютексом.
type RabbitBus struct {
	mu       sync.Mutex
	url      string
	dial     dialFunc
	conn     amqpConnection
	channel  amqpChannel
	exchange string
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("rabbitmq: схема должна быть amqp:// или amqps://")
	}
	return clean, nil
}

// NewRabbitBus подключается к брокеру и объявляет durable topic-обменник.
func NewRabbitBus(amqpURL, exchange string) (*RabbitBus, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}
	return newRabbitBus(cleanURL, exchange, dialAMQP)
}

func newRabbitBus(url, exchange string, dial dialFunc) (*RabbitBus, error) {
	b := &RabbitBus{url: url, dial: dial, exchange: exchange}
	if err := b.reopen(); err != nil {
		b.closeLocked()
		return nil, err
	}
	return b, nil
}

// reopen закрывает старый канал, при разорванном соединении подключается заново
// и объявляет обменник. Вызывается под мьютексом.
func (b *RabbitBus) reopen() error {
	if b.channel != nil {
		_ = b.channel.Close()
		b.channel = nil
	}

	if b.conn == nil || b.conn.IsClosed() {
		if b.conn != nil {
			_ = b.conn.Close()
		}
		conn, err := b.dial(b.url)
		if err != nil {
			b.conn = nil
			return err
		}
		b.conn = conn
	}

	ch, err := b.conn.Channel()
	if err != nil {
		return err
	}
	if err := ch.ExchangeDeclare(b.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return err
	}
	b.channel = ch
	return nil
}

// Publish отправляет событие. Если канала нет или публикация не удалась,
// один раз переоткрывает канал (и соединение) и повторяет.
func (b *RabbitBus) Publish(ctx context.Context, routingKey string, body interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         jsonBody,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.channel != nil {
		err = b.channel.PublishWithContext(ctx, b.exchange, routingKey, false, false, msg)
		if err == nil {
			return nil
		}
		logger.WithComponent("rabbitmq").WithError(err).WithField("routing_key", routingKey).Warn("публикация не удалась, переоткрываем канал")
	}

	if err := b.reopen(); err != nil {
		return err
	}
	return b.channel.PublishWithContext(ctx, b.exchange, routingKey, false, false, msg)
}

func (b *RabbitBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeLocked()
}

func (b *RabbitBus) closeLocked() {
	if b.channel != nil {
		_ = b.channel.Close()
		b.channel = nil
	}
	if b.conn != nil {
		_ = b.conn.Close()
		b.conn = nil
	}
}
