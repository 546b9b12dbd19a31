package routes

import (
	"github.com/gin-gonic/gin"
	orderControllers "github.com/junaidrashid-git/storefront-api/controllers/order"
	"github.com/junaidrashid-git/storefront-api/middleware"
)

func SetupOrderRoutes(r *gin.RouterGroup, d Deps) {
	orders := r.Group("/orders")
	{
		// Checkout the caller's cart
		orders.POST("", middleware.RequireUser(d.Tokens), orderControllers.PlaceOrderHandler(d.Orders, d.Idempotency))

		// Caller's order history
		orders.GET("", middleware.RequireUser(d.Tokens), orderControllers.GetUserOrdersHandler(d.Orders))
		orders.GET("/:id", middleware.RequireUser(d.Tokens), orderControllers.GetOrderByIDHandler(d.Orders))

		// Update order status (admin only)
		orders.PUT("/:id/status", middleware.RequireAdmin(d.Tokens, d.AdminAPIKey), orderControllers.UpdateOrderStatusHandler(d.Orders))
	}
}
