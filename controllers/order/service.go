package orderControllers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	paymentControllers "github.com/junaidrashid-git/storefront-api/controllers/payment"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/pkg/apperr"
	"github.com/junaidrashid-git/storefront-api/pkg/metrics"
	"github.com/junaidrashid-git/storefront-api/pkg/outbox"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const tracerName = "storefront/orders"

const (
	AggregateOrder          = "order"
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

type OrderCreatedPayload struct {
	OrderID         string          `json:"orderId"`
	UserID          string          `json:"userId"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	ItemCount       int             `json:"itemCount"`
	PaymentIntentID string          `json:"paymentIntentId"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type StatusChangedPayload struct {
	OrderID string             `json:"orderId"`
	UserID  string             `json:"userId"`
	From    models.OrderStatus `json:"from"`
	To      models.OrderStatus `json:"to"`
}

// Service owns checkout and the order ledger.
type Service struct {
	db       *gorm.DB
	log      *slog.Logger
	payments paymentControllers.Gateway
	verify   bool
	currency string
	tracer   trace.Tracer
	metrics  *metrics.ServerMetrics
}

// NewService builds the order service. With verify set, every checkout retrieves its
// payment intent from payments and checks it against the priced cart.
func NewService(db *gorm.DB, log *slog.Logger, payments paymentControllers.Gateway, verify bool, currency string) *Service {
	return &Service{
		db:       db,
		log:      log,
		payments: payments,
		verify:   verify,
		currency: currency,
		tracer:   otel.Tracer(tracerName),
	}
}

func (s *Service) WithMetrics(m *metrics.ServerMetrics) *Service {
	s.metrics = m
	return s
}

// WithTracerProvider replaces the global provider the service traces with.
func (s *Service) WithTracerProvider(tp trace.TracerProvider) *Service {
	s.tracer = tp.Tracer(tracerName)
	return s
}

// ListOrders returns the user's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, apperr.Internal("failed to fetch orders", err)
	}
	return orders, nil
}

// AllOrders is the admin view across every user.
func (s *Service) AllOrders(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	if err := s.db.WithContext(ctx).Preload("Items").Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, apperr.Internal("failed to fetch orders", err)
	}
	return orders, nil
}

// GetOrder returns one of the user's orders, looked up by order id or payment intent id.
// Orders of other users are reported as missing.
func (s *Service) GetOrder(ctx context.Context, userID, orderID string) (models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("(id = ? OR payment_intent_id = ?) AND user_id = ?", orderID, orderID, userID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Order{}, apperr.NotFound("order not found")
		}
		return models.Order{}, apperr.Internal("failed to fetch order", err)
	}
	return order, nil
}

// SetStatus moves an order along the status lifecycle under a row lock and records
// the change in the outbox. Setting the current status again is a no-op.
func (s *Service) SetStatus(ctx context.Context, orderID, status string) (models.Order, error) {
	next, err := models.ParseOrderStatus(status)
	if err != nil {
		return models.Order{}, err
	}

	ctx, span := s.tracer.Start(ctx, "order.set_status", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.status", string(next)),
	))
	defer span.End()

	var order models.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("order not found")
			}
			return err
		}

		prev := order.OrderStatus
		if prev != next {
			if !prev.CanTransitionTo(next) {
				return apperr.Conflict(fmt.Sprintf("cannot move order from %s to %s", prev, next))
			}
			if err := tx.Model(&order).Update("order_status", next).Error; err != nil {
				return err
			}
			order.OrderStatus = next

			ev, err := outbox.NewEvent(AggregateOrder, order.ID, EventOrderStatusChanged, StatusChangedPayload{
				OrderID: order.ID, UserID: order.UserID, From: prev, To: next,
			}, outbox.Traceparent(ctx))
			if err != nil {
				return err
			}
			if err := outbox.Enqueue(tx, &ev); err != nil {
				return err
			}
		}
		return tx.Where("order_id = ?", order.ID).Order("id").Find(&order.Items).Error
	})
	if err != nil {
		span.RecordError(err)
		var e *apperr.Error
		if errors.As(err, &e) {
			return models.Order{}, err
		}
		return models.Order{}, apperr.Internal("failed to update order status", err)
	}
	return order, nil
}
