package productcontroller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/pkg/apperr"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const lookupTimeout = 5 * time.Second

// GetProductByID returns a single product. Concurrent reads of the same id share one query.
// URL param: /products/:id
func GetProductByID(db *gorm.DB) gin.HandlerFunc {
	var group singleflight.Group

	return func(c *gin.Context) {
		id := c.Param("id")
		if id == "" {
			middleware.RespondError(c, apperr.InvalidArgument("Product ID is required"))
			return
		}

		// The shared query outlives any one caller; each caller only waits as long as its own request.
		ctx := c.Request.Context()
		ch := group.DoChan(id, func() (interface{}, error) {
			qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
			defer cancel()

			var product models.Product
			if err := db.WithContext(qctx).First(&product, "id = ?", id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, apperr.NotFound("Product not found")
				}
				return nil, apperr.Internal("Failed to retrieve product", err)
			}
			return product, nil
		})

		var res singleflight.Result
		select {
		case res = <-ch:
		case <-ctx.Done():
			c.AbortWithStatus(499) // client closed request
			return
		}
		if res.Err != nil {
			middleware.RespondError(c, res.Err)
			return
		}
		c.JSON(http.StatusOK, res.Val.(models.Product))
	}
}
