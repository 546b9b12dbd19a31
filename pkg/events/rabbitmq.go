package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/junaidrashid-git/storefront-api/pkg/outbox"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "storefront.orders"
	ExchangeType = "topic"
)

type AMQPChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// SetupRabbit dials url with a short retry loop and declares the order exchange.
func SetupRabbit(log *slog.Logger, url string) (*amqp.Connection, *amqp.Channel, error) {
	var conn *amqp.Connection
	var err error

	for i := 0; i < 5; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		log.Warn("rabbitmq dial failed", "attempt", i+1, "err", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("could not open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangeName, // name
		ExchangeType, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("could not declare exchange: %w", err)
	}
	return conn, ch, nil
}

type RabbitPublisher struct {
	ch AMQPChannel
}

func NewRabbitPublisher(ch AMQPChannel) *RabbitPublisher {
	return &RabbitPublisher{ch: ch}
}

// Publish routes by event type (order.created, order.status_changed).
func (p *RabbitPublisher) Publish(ctx context.Context, ev outbox.Event) error {
	headers := amqp.Table{"event_id": ev.ID}
	if ev.Traceparent != "" {
		headers["traceparent"] = ev.Traceparent
	}
	err := p.ch.PublishWithContext(ctx,
		ExchangeName, // exchange
		ev.Type,      // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    fmt.Sprint(ev.ID),
			Type:         ev.Type,
			Headers:      headers,
			Body:         ev.Payload,
		},
	)
	if err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", ev.Type, err)
	}
	return nil
}
