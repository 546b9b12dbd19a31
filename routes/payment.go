package routes

import (
	"github.com/gin-gonic/gin"
	paymentControllers "github.com/junaidrashid-git/storefront-api/controllers/payment"
	"github.com/junaidrashid-git/storefront-api/middleware"
)

func SetupPaymentRoutes(r *gin.RouterGroup, d Deps) {
	// Payment intent for the caller's cart total
	r.POST("/create-payment-intent",
		middleware.RequireUser(d.Tokens),
		paymentControllers.CreatePaymentIntentHandler(d.DB, d.Payments, d.Currency),
	)
}
