package routes

import (
	"github.com/gin-gonic/gin"
	cartControllers "github.com/junaidrashid-git/storefront-api/controllers/cart"
	productControllers "github.com/junaidrashid-git/storefront-api/controllers/product"
	userControllers "github.com/junaidrashid-git/storefront-api/controllers/user"
	"github.com/junaidrashid-git/storefront-api/middleware"
)

// SetupUserRoutes registers the profile and cart endpoints (JWT) and the public catalog.
func SetupUserRoutes(r *gin.RouterGroup, d Deps) {
	// ──────────────── Browse Products ────────────────
	r.GET("/products", productControllers.GetProducts(d.DB))
	r.GET("/products/:id", productControllers.GetProductByID(d.DB))

	requireUser := middleware.RequireUser(d.Tokens)

	// ──────────────── User Profile ────────────────
	userGroup := r.Group("/user", requireUser)
	{
		userGroup.GET("", userControllers.GetUser(d.DB))
		userGroup.PUT("", userControllers.UpdateUser(d.DB))
	}

	// ──────────────── Shopping Cart ────────────────
	cartGroup := r.Group("/cart", requireUser)
	{
		cartGroup.GET("", cartControllers.GetUserCart(d.DB))
		cartGroup.POST("/add", cartControllers.AddToCart(d.DB))
		cartGroup.PUT("/update/:productId", cartControllers.UpdateCartItem(d.DB))
		cartGroup.DELETE("/remove/:productId", cartControllers.RemoveCartItem(d.DB))
		cartGroup.DELETE("/clear", cartControllers.ClearUserCart(d.DB))
	}
}
