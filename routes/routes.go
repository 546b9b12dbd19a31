package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/auth"
	orderControllers "github.com/junaidrashid-git/storefront-api/controllers/order"
	paymentControllers "github.com/junaidrashid-git/storefront-api/controllers/payment"
	"github.com/junaidrashid-git/storefront-api/pkg/events"
	"github.com/junaidrashid-git/storefront-api/pkg/idempotency"
	"gorm.io/gorm"
)

// Deps is everything the route groups hand to their handlers.
type Deps struct {
	DB           *gorm.DB
	Tokens       *auth.Tokens
	AdminAPIKey  string
	IsAdminEmail func(string) bool
	Currency     string
	Orders       *orderControllers.Service
	Payments     paymentControllers.Gateway
	Idempotency  *idempotency.Store // nil disables the Idempotency-Key guard
	Hub          *events.Hub
}

// SetupRoutes is the single entry‐point that wires up every route group under prefix.
func SetupRoutes(r *gin.Engine, prefix string, d Deps) {
	api := r.Group(prefix)

	// 1️⃣ Public auth + catalog routes (no middleware)
	SetupAuthRoutes(api, d)

	// 2️⃣ User routes (JWT‐protected)
	SetupUserRoutes(api, d)

	// 3️⃣ Order + payment routes (JWT‐protected)
	SetupOrderRoutes(api, d)
	SetupPaymentRoutes(api, d)

	// 4️⃣ Admin routes (admin token or API key)
	SetupAdminRoutes(api, d)
}
