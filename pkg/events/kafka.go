package events

import (
	"context"
	"fmt"

	"github.com/junaidrashid-git/storefront-api/pkg/outbox"
	"github.com/segmentio/kafka-go"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	writer MessageWriter
	topic  string
}

func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
}

func NewKafkaPublisher(writer MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, topic: topic}
}

// Publish keys messages by order id so one order's events stay on one partition.
func (p *KafkaPublisher) Publish(ctx context.Context, ev outbox.Event) error {
	headers := []kafka.Header{
		{Key: "event_type", Value: []byte(ev.Type)},
		{Key: "event_id", Value: []byte(fmt.Sprint(ev.ID))},
	}
	if ev.Traceparent != "" {
		headers = append(headers, kafka.Header{Key: "traceparent", Value: []byte(ev.Traceparent)})
	}

	msg := kafka.Message{
		Topic:   p.topic,
		Key:     []byte(ev.AggregateID),
		Value:   ev.Payload,
		Headers: headers,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish %s: %w", ev.Type, err)
	}
	return nil
}
