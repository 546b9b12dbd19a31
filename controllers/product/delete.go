package productcontroller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/pkg/apperr"
	"gorm.io/gorm"
)

// DeleteProduct soft-deletes a product. Cart lines pointing at it stay and render
// with a null product; checkout of such a cart fails with not found.
func DeleteProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := db.WithContext(c.Request.Context()).Where("id = ?", c.Param("id")).Delete(&models.Product{})
		if res.Error != nil {
			middleware.RespondError(c, apperr.Internal("Failed to delete product", res.Error))
			return
		}
		if res.RowsAffected == 0 {
			middleware.RespondError(c, apperr.NotFound("Product not found"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
	}
}
