package routes

import (
	"github.com/gin-gonic/gin"
	userControllers "github.com/junaidrashid-git/storefront-api/controllers/user"
)

// SetupAuthRoutes registers all “/auth/*” endpoints.
func SetupAuthRoutes(r *gin.RouterGroup, d Deps) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", userControllers.Register(d.DB, d.Tokens, d.IsAdminEmail))
		authGroup.POST("/login", userControllers.Login(d.DB, d.Tokens))
	}
}
