package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

type Event struct {
	ID            int64      `gorm:"primaryKey;autoIncrement"`
	AggregateType string     `gorm:"type:varchar(50);not null"`
	AggregateID   string     `gorm:"type:varchar(36);not null;index"`
	Type          string     `gorm:"type:varchar(100);not null"`
	Payload       []byte     `gorm:"not null"`
	Traceparent   string     `gorm:"type:varchar(100)"`
	Status        Status     `gorm:"type:varchar(20);not null;default:'pending';index"`
	RelayID       string     `gorm:"type:varchar(100)"`
	LeaseUntil    *time.Time
	RetryCount    int `gorm:"not null;default:0"`
	LastError     *string
	CreatedAt     time.Time
}

func (Event) TableName() string { return "outbox" }

func NewEvent(aggregateType, aggregateID, eventType string, payload any, traceparent string) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Type:          eventType,
		Payload:       body,
		Traceparent:   traceparent,
		Status:        StatusPending,
	}, nil
}

// Enqueue writes ev with tx, so it commits or rolls back together with the change it describes.
func Enqueue(tx *gorm.DB, ev *Event) error {
	if ev.Status == "" {
		ev.Status = StatusPending
	}
	return tx.Create(ev).Error
}

// Traceparent renders the W3C traceparent of the span in ctx, or "" without one.
func Traceparent(ctx context.Context) string {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier.Get("traceparent")
}
