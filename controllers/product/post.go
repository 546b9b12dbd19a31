package productcontroller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/pkg/apperr"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductInput struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
}

// validPrice accepts non-negative prices with at most two fraction digits.
func validPrice(price decimal.Decimal) error {
	if _, err := models.ToMinorUnits(price); err != nil {
		return apperr.InvalidArgument("invalid price: " + err.Error())
	}
	return nil
}

// CreateProduct creates a new catalog product.
func CreateProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			middleware.RespondError(c, apperr.InvalidArgument("Invalid input: "+err.Error()))
			return
		}
		name := strings.TrimSpace(input.Name)
		if name == "" {
			middleware.RespondError(c, apperr.InvalidArgument("name is required"))
			return
		}
		if err := validPrice(input.Price); err != nil {
			middleware.RespondError(c, err)
			return
		}

		product := models.Product{
			Name:        name,
			Description: strings.TrimSpace(input.Description),
			Price:       input.Price,
			Image:       strings.TrimSpace(input.Image),
		}
		if err := db.WithContext(c.Request.Context()).Create(&product).Error; err != nil {
			middleware.RespondError(c, apperr.Internal("Failed to create product", err))
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}
