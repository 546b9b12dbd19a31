package orderControllers

import (
	"context"
	"sync"
	"testing"

	"github.com/junaidrashid-git/storefront-api/auth"
	cartControllers "github.com/junaidrashid-git/storefront-api/controllers/cart"
	paymentControllers "github.com/junaidrashid-git/storefront-api/controllers/payment"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/pkg/apperr"
	"github.com/junaidrashid-git/storefront-api/pkg/logging"
	"github.com/junaidrashid-git/storefront-api/pkg/outbox"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeGateway struct {
	mu      sync.Mutex
	intents map[string]paymentControllers.Intent
	err     error
	lookups int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: map[string]paymentControllers.Intent{}}
}

func (g *fakeGateway) succeed(id string, amountMinor int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[id] = paymentControllers.Intent{ID: id, Status: paymentControllers.IntentSucceeded, Currency: "usd", Amount: amountMinor}
}

func (g *fakeGateway) CreateIntent(_ context.Context, amountMinor int64, currency string, _ map[string]string) (paymentControllers.Intent, error) {
	return paymentControllers.Intent{ID: "pi_new", ClientSecret: "pi_new_secret", Currency: currency, Amount: amountMinor}, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, id string) (paymentControllers.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lookups++
	if g.err != nil {
		return paymentControllers.Intent{}, g.err
	}
	intent, ok := g.intents[id]
	if !ok {
		return paymentControllers.Intent{}, apperr.InvalidArgument("payment intent not found")
	}
	return intent, nil
}

func newService(db *gorm.DB, gw paymentControllers.Gateway) *Service {
	return NewService(db, logging.Discard(), gw, true, "usd")
}

func identity(u models.User) auth.Identity {
	return auth.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func address() models.ShippingAddress {
	return models.ShippingAddress{Address: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701", Country: "US"}
}

func addToCart(t *testing.T, db *gorm.DB, userID, productID string, qty int) {
	t.Helper()
	_, err := cartControllers.AddItem(context.Background(), db, userID, productID, qty)
	require.NoError(t, err)
}

func cartLines(t *testing.T, db *gorm.DB, userID string) map[string]int {
	t.Helper()
	cart, err := cartControllers.GetCart(context.Background(), db, userID)
	require.NoError(t, err)
	out := map[string]int{}
	for _, item := range cart.Items {
		out[item.ProductID] = item.Quantity
	}
	return out
}

func countRows(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	tx := db.Model(model)
	if query != "" {
		tx = tx.Where(query, args...)
	}
	require.NoError(t, tx.Count(&n).Error)
	return n
}

func outboxEvents(t *testing.T, db *gorm.DB, eventType string) []outbox.Event {
	t.Helper()
	var evs []outbox.Event
	require.NoError(t, db.Where("type = ?", eventType).Order("id").Find(&evs).Error)
	return evs
}

func paymentIntent(id, status, currency string, amountMinor int64) paymentControllers.Intent {
	return paymentControllers.Intent{ID: id, Status: status, Currency: currency, Amount: amountMinor}
}
