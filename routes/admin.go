package routes

import (
	"github.com/gin-gonic/gin"
	cartControllers "github.com/junaidrashid-git/storefront-api/controllers/cart"
	orderControllers "github.com/junaidrashid-git/storefront-api/controllers/order"
	productcontroller "github.com/junaidrashid-git/storefront-api/controllers/product"
	userControllers "github.com/junaidrashid-git/storefront-api/controllers/user"
	"github.com/junaidrashid-git/storefront-api/middleware"
)

// SetupAdminRoutes registers all “/admin/*” endpoints. Requires an admin token or the API key.
func SetupAdminRoutes(r *gin.RouterGroup, d Deps) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.RequireAdmin(d.Tokens, d.AdminAPIKey))
	{
		// ─────────── User Management ───────────
		adminGroup.GET("/users", userControllers.GetAllUsers(d.DB))
		adminGroup.GET("/users/:user_id/cart", cartControllers.GetAdminUserCart(d.DB))

		// ─────────── Product Management ───────────
		productAdmin := adminGroup.Group("/products")
		{
			productAdmin.POST("", productcontroller.CreateProduct(d.DB))
			productAdmin.PUT("/:id", productcontroller.UpdateProduct(d.DB))
			productAdmin.GET("", productcontroller.GetProducts(d.DB))
			productAdmin.DELETE("/:id", productcontroller.DeleteProduct(d.DB))
			productAdmin.POST("/import-excel", productcontroller.ImportProductsFromExcel(d.DB))
			productAdmin.GET("/export-excel", productcontroller.ExportProductsToExcel(d.DB))
		}

		// ─────────── Order Management ───────────
		orderAdmin := adminGroup.Group("/orders")
		{
			orderAdmin.GET("", orderControllers.GetAllOrdersHandler(d.Orders))

			// websocket endpoint for real-time order updates
			orderAdmin.GET("/ws", orderControllers.OrderWebSocketHandler(d.Hub))
		}
	}
}
