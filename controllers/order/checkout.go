package orderControllers

import (
	"context"
	"errors"
	"strings"

	"github.com/junaidrashid-git/storefront-api/auth"
	paymentControllers "github.com/junaidrashid-git/storefront-api/controllers/payment"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/pkg/apperr"
	"github.com/junaidrashid-git/storefront-api/pkg/outbox"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CheckoutRequest struct {
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentIntentID string                 `json:"paymentIntentId"`
}

func (r CheckoutRequest) Validate() error {
	if err := r.ShippingAddress.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.PaymentIntentID) == "" {
		return apperr.InvalidArgument("paymentIntentId is required")
	}
	return nil
}

// Checkout turns the caller's cart into an order. Claiming the cart lines, writing
// the order and enqueueing order.created happen in one transaction, so a cart is
// checked out at most once and never loses lines to a racing mutation.
func (s *Service) Checkout(ctx context.Context, id auth.Identity, req CheckoutRequest) (order models.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "order.checkout")
	defer span.End()
	defer func() {
		outcome := "created"
		if err != nil {
			outcome = string(apperr.KindOf(err))
			span.RecordError(err)
		}
		if s.metrics != nil {
			s.metrics.Checkouts.WithLabelValues(outcome).Inc()
		}
	}()

	if err := req.Validate(); err != nil {
		return models.Order{}, err
	}
	req.PaymentIntentID = strings.TrimSpace(req.PaymentIntentID)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", id.UserID).First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrEmptyCart
			}
			return err
		}

		var lines []models.CartItem
		if err := tx.Where("cart_id = ?", cart.ID).Order("added_at, id").Find(&lines).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return apperr.ErrEmptyCart
		}

		var used int64
		if err := tx.Model(&models.Order{}).Where("payment_intent_id = ?", req.PaymentIntentID).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return apperr.Conflict("payment intent already used")
		}

		items, err := priceLines(tx, lines)
		if err != nil {
			return err
		}
		order = models.NewOrder(id.UserID, items, req.ShippingAddress, req.PaymentIntentID)
		span.SetAttributes(
			attribute.String("order.id", order.ID),
			attribute.String("order.total", order.TotalAmount.StringFixed(2)),
		)

		if err := s.verifyPayment(ctx, req.PaymentIntentID, order.TotalAmount); err != nil {
			return err
		}

		if err := claimLines(tx, cart, lines); err != nil {
			return err
		}

		if err := tx.Create(&order).Error; err != nil {
			if models.IsUniqueViolation(err) {
				return apperr.Conflict("payment intent already used")
			}
			return err
		}

		ev, err := outbox.NewEvent(AggregateOrder, order.ID, EventOrderCreated, OrderCreatedPayload{
			OrderID:         order.ID,
			UserID:          order.UserID,
			TotalAmount:     order.TotalAmount,
			ItemCount:       len(order.Items),
			PaymentIntentID: order.PaymentIntentID,
			CreatedAt:       order.CreatedAt,
		}, outbox.Traceparent(ctx))
		if err != nil {
			return err
		}
		return outbox.Enqueue(tx, &ev)
	})
	if err != nil {
		var e *apperr.Error
		if errors.As(err, &e) {
			return models.Order{}, err
		}
		return models.Order{}, apperr.Internal("failed to place order", err)
	}

	s.log.InfoContext(ctx, "order placed",
		"order_id", order.ID,
		"user_id", order.UserID,
		"total", order.TotalAmount.StringFixed(2),
		"items", len(order.Items),
	)
	return order, nil
}

// priceLines snapshots every line at the product's current price.
func priceLines(tx *gorm.DB, lines []models.CartItem) ([]models.OrderItem, error) {
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	var products []models.Product
	if err := tx.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		p, ok := byID[line.ProductID]
		if !ok {
			return nil, apperr.NotFound("product " + line.ProductID + " is no longer available")
		}
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  line.Quantity,
			UnitPrice: p.Price,
		})
	}
	return items, nil
}

// claimLines deletes exactly the priced lines and compare-and-swaps the cart version.
// Either check failing means another request changed the cart since it was read.
func claimLines(tx *gorm.DB, cart models.Cart, lines []models.CartItem) error {
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ID)
	}
	res := tx.Where("id IN ?", ids).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(len(ids)) {
		return apperr.Conflict("cart changed during checkout, please retry")
	}

	res = tx.Model(&models.Cart{}).
		Where("id = ? AND version = ?", cart.ID, cart.Version).
		UpdateColumn("version", gorm.Expr("version + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return apperr.Conflict("cart changed during checkout, please retry")
	}
	return nil
}

func (s *Service) verifyPayment(ctx context.Context, intentID string, total decimal.Decimal) error {
	if !s.verify {
		return nil
	}
	if s.payments == nil {
		return apperr.Upstream("payment processor is not configured", nil)
	}

	intent, err := s.payments.GetIntent(ctx, intentID)
	if err != nil {
		return err
	}
	if intent.Status != paymentControllers.IntentSucceeded {
		return apperr.InvalidArgument("payment not confirmed")
	}
	if !strings.EqualFold(intent.Currency, s.currency) {
		return apperr.InvalidArgument("payment currency mismatch")
	}
	want, err := models.ToMinorUnits(total)
	if err != nil {
		return apperr.Internal("invalid order total", err)
	}
	if intent.Amount != want {
		return apperr.InvalidArgument("amount mismatch")
	}
	return nil
}
