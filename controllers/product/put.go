package productcontroller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/pkg/apperr"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type UpdateProductInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Image       *string          `json:"image"`
}

// UpdateProduct patches an existing product. Carts see a new price immediately;
// placed orders keep the price they were checked out at.
func UpdateProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input UpdateProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			middleware.RespondError(c, apperr.InvalidArgument("Invalid input: "+err.Error()))
			return
		}

		updates := make(map[string]interface{})
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				middleware.RespondError(c, apperr.InvalidArgument("name must not be empty"))
				return
			}
			updates["name"] = name
		}
		if input.Description != nil {
			updates["description"] = strings.TrimSpace(*input.Description)
		}
		if input.Price != nil {
			if err := validPrice(*input.Price); err != nil {
				middleware.RespondError(c, err)
				return
			}
			updates["price"] = *input.Price
		}
		if input.Image != nil {
			updates["image"] = strings.TrimSpace(*input.Image)
		}

		db := db.WithContext(c.Request.Context())
		var product models.Product
		if err := db.First(&product, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				middleware.RespondError(c, apperr.NotFound("Product not found"))
				return
			}
			middleware.RespondError(c, apperr.Internal("Failed to retrieve product", err))
			return
		}

		if len(updates) > 0 {
			if err := db.Model(&product).Updates(updates).Error; err != nil {
				middleware.RespondError(c, apperr.Internal("Failed to update product", err))
				return
			}
			if err := db.First(&product, "id = ?", product.ID).Error; err != nil {
				middleware.RespondError(c, apperr.Internal("Failed to retrieve product", err))
				return
			}
		}
		c.JSON(http.StatusOK, product)
	}
}
