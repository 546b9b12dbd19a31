package productcontroller

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/pkg/apperr"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var sortColumns = map[string]string{
	"name":       "name",
	"price":      "price",
	"created_at": "created_at",
}

func GetProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1️⃣ Filtering & sorting params
		search := strings.TrimSpace(c.Query("search"))
		minPriceStr := c.Query("min_price")
		maxPriceStr := c.Query("max_price")
		sortBy, ok := sortColumns[c.DefaultQuery("sort", "created_at")]
		if !ok {
			middleware.RespondError(c, apperr.InvalidArgument("sort must be one of name, price, created_at"))
			return
		}
		sortOrder := strings.ToLower(c.DefaultQuery("order", "desc"))
		if sortOrder != "asc" && sortOrder != "desc" {
			sortOrder = "desc"
		}

		// 2️⃣ Build base query
		query := db.WithContext(c.Request.Context()).Model(&models.Product{})

		// 3️⃣ Apply search filter
		if search != "" {
			likePattern := "%" + strings.ToLower(search) + "%"
			query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", likePattern, likePattern)
		}

		// 4️⃣ Apply price range filter
		if minPriceStr != "" {
			mp, err := decimal.NewFromString(minPriceStr)
			if err != nil {
				middleware.RespondError(c, apperr.InvalidArgument("Invalid min_price"))
				return
			}
			query = query.Where("price >= ?", mp)
		}
		if maxPriceStr != "" {
			mp, err := decimal.NewFromString(maxPriceStr)
			if err != nil {
				middleware.RespondError(c, apperr.InvalidArgument("Invalid max_price"))
				return
			}
			query = query.Where("price <= ?", mp)
		}

		// 5️⃣ Apply sorting
		products := []models.Product{}
		if err := query.Order(fmt.Sprintf("%s %s, id", sortBy, sortOrder)).Find(&products).Error; err != nil {
			middleware.RespondError(c, apperr.Internal("Failed to fetch products", err))
			return
		}
		c.JSON(http.StatusOK, products)
	}
}
