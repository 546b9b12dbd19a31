package orderControllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	cartControllers "github.com/junaidrashid-git/storefront-api/controllers/cart"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/pkg/apperr"
	"github.com/junaidrashid-git/storefront-api/pkg/logging"
	"github.com/junaidrashid-git/storefront-api/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestCheckoutEndToEnd(t *testing.T) {
	db := testutil.NewDB(t)
	gw := newFakeGateway()
	svc := newService(db, gw)
	ctx := context.Background()

	user := testutil.SeedUser(t, db, "a@shop.test", models.RoleCustomer)
	mug := testutil.SeedProduct(t, db, "mug", "19.99")
	tee := testutil.SeedProduct(t, db, "tee", "5.00")
	addToCart(t, db, user.ID, mug.ID, 2)
	addToCart(t, db, user.ID, tee.ID, 1)
	gw.succeed("pi_1", 4498)

	order, err := svc.Checkout(ctx, identity(user), CheckoutRequest{ShippingAddress: address(), PaymentIntentID: "pi_1"})
	require.NoError(t, err)

	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("44.98")), "total %s", order.TotalAmount)
	assert.Equal(t, models.OrderStatusProcessing, order.OrderStatus)
	assert.Equal(t, models.PaymentStatusCompleted, order.PaymentStatus)
	assert.Equal(t, user.ID, order.UserID)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "mug", order.Items[0].Name)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.True(t, order.Items[0].UnitPrice.Equal(decimal.RequireFromString("19.99")))

	assert.Empty(t, cartLines(t, db, user.ID))

	evs := outboxEvents(t, db, EventOrderCreated)
	require.Len(t, evs, 1)
	assert.Equal(t, order.ID, evs[0].AggregateID)
	var payload OrderCreatedPayload
	require.NoError(t, json.Unmarshal(evs[0].Payload, &payload))
	assert.True(t, payload.TotalAmount.Equal(order.TotalAmount))
	assert.Equal(t, 2, payload.ItemCount)

	gw.succeed("pi_2", 4498)
	_, err = svc.Checkout(ctx, identity(user), CheckoutRequest{ShippingAddress: address(), PaymentIntentID: "pi_2"})
	assert.ErrorIs(t, err, apperr.ErrEmptyCart)
	assert.EqualValues(t, 1, countRows(t, db, &models.Order{}, ""))
}

func TestCheckoutTotalIsExactDecimal(t *testing.T) {
	db := testutil.NewDB(t)
	gw := newFakeGateway()
	svc := newService(db, gw)

	user := testutil.SeedUser(t, db, "a@shop.test", models.RoleCustomer)
	p := testutil.SeedProduct(t, db, "dime-ish", "10.10")
	addToCart(t, db, user.ID, p.ID, 3)
	gw.succeed("pi_1", 3030)

	order, err := svc.Checkout(context.Background(), identity(user), CheckoutRequest{ShippingAddress: address(), PaymentIntentID: "pi_1"})
	require.NoError(t, err)
	assert.Equal(t, "30.30", order.TotalAmount.StringFixed(2))

	stored, err := svc.GetOrder(context.Background(), user.ID, order.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(decimal.RequireFromString("30.30")))
}

func TestOrderSnapshotSurvivesPriceChange(t *testing.T) {
	db := testutil.NewDB(t)
	gw := newFakeGateway()
	svc := newService(db, gw)
	ctx := context.Background()

	user := testutil.SeedUser(t, db, "a@shop.test", models.RoleCustomer)
	mug := testutil.SeedProduct(t, db, "mug", "19.99")
	addToCart(t, db, user.ID, mug.ID, 1)
	gw.succeed("pi_1", 1999)

	order, err := svc.Checkout(ctx, identity(user), CheckoutRequest{ShippingAddress: address(), PaymentIntentID: "pi_1"})
	require.NoError(t, err)

	require.NoError(t, db.Model(&mug).Updates(map[string]any{"price": decimal.RequireFromString("99.00"), "name": "Golden mug"}).Error)

	stored, err := svc.GetOrder(ctx, user.ID, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "mug", stored.Items[0].Name)
	assert.True(t, stored.Items[0].UnitPrice.Equal(decimal.RequireFromString("19.99")))
	assert.True(t, stored.TotalAmount.Equal(decimal.RequireFromString("19.99")))
}

func TestCheckoutMissingProductLeavesCartUntouched(t *testing.T) {
	db := testutil.NewDB(t)
	gw := newFakeGateway()
	svc := newService(db, gw)

	user := testutil.SeedUser(t, db, "a@shop.test", models.RoleCustomer)
	mug := testutil.SeedProduct(t, db, "mug", "19.99")
	tee := testutil.SeedProduct(t, db, "tee", "5.00")
	addToCart(t, db, user.ID, mug.ID, 2)
	addToCart(t, db, user.ID, tee.ID, 1)
	require.NoError(t, db.Delete(&tee).Error)
	gw.succeed("pi_1", 3998)

	_, err := svc.Checkout(context.Background(), identity(user), CheckoutRequest{ShippingAddress: address(), PaymentIntentID: "pi_1"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, map[string]int{mug.ID: 2, tee.ID: 1}, cartLines(t, db, user.ID))
	assert.Zero(t, countRows(t, db, &models.Order{}, ""))
	assert.Zero(t, gw.lookups)
}

func TestCheckoutPaymentVerification(t *testing.T) {
	tests := []struct {
		name   string
		intent func(gw *fakeGateway)
		kind   apperr.Kind
	}{
		{"not succeeded", func(gw *fakeGateway) {
			gw.intents["pi_1"] = paymentIntent("pi_1", "requires_payment_method", "usd", 4498)
		}, apperr.KindInvalidArgument},
		{"amount mismatch", func(gw *fakeGateway) { gw.succeed("pi_1", 4000) }, apperr.KindInvalidArgument},
		{"currency mismatch", func(gw *fakeGateway) {
			gw.intents["pi_1"] = paymentIntent("pi_1", "succeeded", "eur", 4498)
		}, apperr.KindInvalidArgument},
		{"unknown intent", func(gw *fakeGateway) {}, apperr.KindInvalidArgument},
		{"processor down", func(gw *fakeGateway) {
			gw.err = apperr.Upstream("failed to reach payment processor", errors.New("dial tcp: connection refused"))
		}, apperr.KindUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.NewDB(t)
			gw := newFakeGateway()
			svc := newService(db, gw)

			user := testutil.SeedUser(t, db, "a@shop.test", models.RoleCustomer)
			mug := testutil.SeedProduct(t, db, "mug", "19.99")
			tee := testutil.SeedProduct(t, db, "tee", "5.00")
			addToCart(t, db, user.ID, mug.ID, 2)
			addToCart(t, db, user.ID, tee.ID, 1)
			tt.intent(gw)

			_, err := svc.Checkout(context.Background(), identity(user), CheckoutRequest{ShippingAddress: address(), PaymentIntentID: "pi_1"})
			assert.Equal(t, tt.kind, apperr.KindOf(err), "err: %v", err)
			assert.Len(t, cartLines(t, db, user.ID), 2)
			assert.Zero(t, countRows(t, db, &models.Order{}, ""))
			assert.Empty(t, outboxEvents(t, db, EventOrderCreated))
		})
	}
}

func TestCheckoutVerificationSwitch(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.SeedUser(t, db, "a@shop.test", models.RoleCustomer)
	mug := testutil.SeedProduct(t, db, "mug", "19.99")
	addToCart(t, db, user.ID, mug.ID, 1)
	req := CheckoutRequest{ShippingAddress: address(), PaymentIntentID: "pi_unchecked"}

	_, err := NewService(db, logging.Discard(), nil, true, "usd").Checkout(context.Background(), identity(user), req)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))

	order, err := NewService(db, logging.Discard(), nil, false, "usd").Checkout(context.Background(), identity(user), req)
	require.NoError(t, err)
	assert.Equal(t, "pi_unchecked", order.PaymentIntentID)
}

func TestCheckoutRejectsReusedPaymentIntent(t *testing.T) {
	db := testutil.NewDB(t)
	gw := newFakeGateway()
	svc := newService(db, gw)
	ctx := context.Background()

	user := testutil.SeedUser(t, db, "a@shop.test", models.RoleCustomer)
	mug := testutil.SeedProduct(t, db, "mug", "19.99")
	gw.succeed("pi_1", 1999)

	addToCart(t, db, user.ID, mug.ID, 1)
	_, err := svc.Checkout(ctx, identity(user), CheckoutRequest{ShippingAddress: address(), PaymentIntentID: "pi_1"})
	require.NoError(t, err)

	addToCart(t, db, user.ID, mug.ID, 1)
	_, err = svc.Checkout(ctx, identity(user), CheckoutRequest{ShippingAddress: address(), PaymentIntentID: "pi_1"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, map[string]int{mug.ID: 1}, cartLines(t, db, user.ID))
}

func TestCheckoutValidatesRequest(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newService(db, newFakeGateway())
	user := testutil.SeedUser(t, db, "a@shop.test", models.RoleCustomer)

	addr := address()
	addr.City = " "
	_, err := svc.Checkout(context.Background(), identity(user), CheckoutRequest{ShippingAddress: addr, PaymentIntentID: "pi_1"})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "city")

	_, err = svc.Checkout(context.Background(), identity(user), CheckoutRequest{ShippingAddress: address(), PaymentIntentID: "  "})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	_, err = svc.Checkout(context.Background(), identity(user), CheckoutRequest{ShippingAddress: address(), PaymentIntentID: "pi_1"})
	assert.ErrorIs(t, err, apperr.ErrEmptyCart)
}

func TestCheckoutTracesIntoOutbox(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	db := testutil.NewDB(t)
	gw := newFakeGateway()
	svc := newService(db, gw).WithTracerProvider(tp)
	user := testutil.SeedUser(t, db, "a@shop.test", models.RoleCustomer)
	mug := testutil.SeedProduct(t, db, "mug", "19.99")
	addToCart(t, db, user.ID, mug.ID, 1)
	gw.succeed("pi_traced", 1999)

	order, err := svc.Checkout(context.Background(), identity(user), CheckoutRequest{ShippingAddress: address(), PaymentIntentID: "pi_traced"})
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "order.checkout", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("order.id", order.ID))

	evs := outboxEvents(t, db, EventOrderCreated)
	require.Len(t, evs, 1)
	assert.Contains(t, evs[0].Traceparent, spans[0].SpanContext().TraceID().String())
}

func TestConcurrentCheckoutsProduceOneOrder(t *testing.T) {
	db := testutil.NewPostgresDB(t)
	gw := newFakeGateway()
	svc := newService(db, gw)

	user := testutil.SeedUser(t, db, "a@shop.test", models.RoleCustomer)
	mug := testutil.SeedProduct(t, db, "mug", "19.99")
	tee := testutil.SeedProduct(t, db, "tee", "5.00")
	addToCart(t, db, user.ID, mug.ID, 2)
	addToCart(t, db, user.ID, tee.ID, 1)

	const attempts = 8
	for i := 0; i < attempts; i++ {
		gw.succeed(fmt.Sprintf("pi_%d", i), 4498)
	}

	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_, errs[i] = svc.Checkout(ctx, identity(user), CheckoutRequest{ShippingAddress: address(), PaymentIntentID: fmt.Sprintf("pi_%d", i)})
		}(i)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.EqualValues(t, 1, countRows(t, db, &models.Order{}, ""))
	assert.Len(t, outboxEvents(t, db, EventOrderCreated), 1)
	assert.Empty(t, cartLines(t, db, user.ID))
}

// Adds racing a checkout either land in the order or stay in the cart, never both or neither.
func TestCheckoutRacingAddsLosesNothing(t *testing.T) {
	db := testutil.NewPostgresDB(t)
	gw := newFakeGateway()
	svc := NewService(db, logging.Discard(), gw, false, "usd")

	user := testutil.SeedUser(t, db, "a@shop.test", models.RoleCustomer)
	mug := testutil.SeedProduct(t, db, "mug", "19.99")
	tee := testutil.SeedProduct(t, db, "tee", "5.00")
	addToCart(t, db, user.ID, mug.ID, 1)

	const adds = 10
	start := make(chan struct{})
	var wg sync.WaitGroup
	addErrs := make([]error, adds)
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, addErrs[i] = cartControllers.AddItem(context.Background(), db, user.ID, tee.ID, 1)
		}(i)
	}
	var order models.Order
	var checkoutErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		order, checkoutErr = svc.Checkout(context.Background(), identity(user), CheckoutRequest{ShippingAddress: address(), PaymentIntentID: "pi_race"})
	}()
	close(start)
	wg.Wait()

	for _, err := range addErrs {
		require.NoError(t, err)
	}
	require.NoError(t, checkoutErr)

	ordered := map[string]int{}
	for _, item := range order.Items {
		ordered[item.ProductID] += item.Quantity
	}
	left := cartLines(t, db, user.ID)
	assert.Equal(t, 1, ordered[mug.ID]+left[mug.ID])
	assert.Equal(t, adds, ordered[tee.ID]+left[tee.ID])
}
