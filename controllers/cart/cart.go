package cartControllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/pkg/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AddItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

// -------- Core Logic --------

// EnsureCart returns the user's cart, creating it on first use.
func EnsureCart(tx *gorm.DB, userID string) (models.Cart, error) {
	var cart models.Cart
	err := tx.Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Cart{}, fmt.Errorf("load cart: %w", err)
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Cart{UserID: userID}).Error; err != nil {
		return models.Cart{}, fmt.Errorf("create cart: %w", err)
	}
	if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return models.Cart{}, fmt.Errorf("load cart: %w", err)
	}
	return cart, nil
}

// GetCart loads the cart with every line joined to its current product. Lines of
// deleted products keep a nil Product.
func GetCart(ctx context.Context, db *gorm.DB, userID string) (models.Cart, error) {
	cart, err := EnsureCart(db.WithContext(ctx), userID)
	if err != nil {
		return models.Cart{}, apperr.Internal("failed to fetch cart", err)
	}
	err = db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("added_at, id") }).
		Preload("Items.Product").
		First(&cart).Error
	if err != nil {
		return models.Cart{}, apperr.Internal("failed to fetch cart", err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return cart, nil
}

// AddItem inserts the line or increments it in one upsert. The conflict branch only
// fires while the summed quantity stays within MaxLineQuantity.
func AddItem(ctx context.Context, db *gorm.DB, userID, productID string, quantity int) (models.Cart, error) {
	if err := validQuantity(quantity); err != nil {
		return models.Cart{}, err
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Select("id").First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Product not found")
			}
			return err
		}

		cart, err := lockCart(tx, userID)
		if err != nil {
			return err
		}

		item := models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity, AddedAt: time.Now().UTC()}
		res := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Set{{
				Column: clause.Column{Name: "quantity"},
				Value:  gorm.Expr("cart_items.quantity + excluded.quantity"),
			}},
			Where: clause.Where{Exprs: []clause.Expression{
				gorm.Expr("cart_items.quantity + excluded.quantity <= ?", models.MaxLineQuantity),
			}},
		}).Create(&item)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.InvalidArgument(fmt.Sprintf("quantity cannot exceed %d", models.MaxLineQuantity))
		}
		return nil
	})
	if err != nil {
		return models.Cart{}, asAppErr("failed to add item to cart", err)
	}
	return GetCart(ctx, db, userID)
}

// UpdateItem sets the absolute quantity of an existing line.
func UpdateItem(ctx context.Context, db *gorm.DB, userID, productID string, quantity int) (models.Cart, error) {
	if err := validQuantity(quantity); err != nil {
		return models.Cart{}, err
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := lockCart(tx, userID)
		if err != nil {
			return err
		}
		res := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND product_id = ?", cart.ID, productID).
			Update("quantity", quantity)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("Item not in cart")
		}
		return nil
	})
	if err != nil {
		return models.Cart{}, asAppErr("failed to update cart item", err)
	}
	return GetCart(ctx, db, userID)
}

// RemoveItem deletes the line for productID. Removing an absent line is not an error.
func RemoveItem(ctx context.Context, db *gorm.DB, userID, productID string) (models.Cart, error) {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := lockCart(tx, userID)
		if err != nil {
			return err
		}
		return tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return models.Cart{}, asAppErr("failed to remove cart item", err)
	}
	return GetCart(ctx, db, userID)
}

func ClearCart(ctx context.Context, db *gorm.DB, userID string) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := lockCart(tx, userID)
		if err != nil {
			return err
		}
		return tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return asAppErr("failed to clear cart", err)
	}
	return nil
}

// lockCart bumps the cart version first, so the row stays locked for the rest of the
// mutation and a concurrent checkout's version check sees the change.
func lockCart(tx *gorm.DB, userID string) (models.Cart, error) {
	cart, err := EnsureCart(tx, userID)
	if err != nil {
		return models.Cart{}, err
	}
	if err := tx.Model(&models.Cart{}).Where("id = ?", cart.ID).Update("version", gorm.Expr("version + 1")).Error; err != nil {
		return models.Cart{}, fmt.Errorf("bump cart version: %w", err)
	}
	return cart, nil
}

func validQuantity(quantity int) error {
	if quantity < 1 {
		return apperr.InvalidArgument("quantity must be at least 1")
	}
	if quantity > models.MaxLineQuantity {
		return apperr.InvalidArgument(fmt.Sprintf("quantity cannot exceed %d", models.MaxLineQuantity))
	}
	return nil
}

func asAppErr(msg string, err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return err
	}
	return apperr.Internal(msg, err)
}

// -------- Handlers --------

// GET /cart
func GetUserCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := middleware.IdentityFrom(c)
		if !ok {
			middleware.RespondError(c, apperr.Unauthorized("Unauthorized"))
			return
		}
		cart, err := GetCart(c.Request.Context(), db, id.UserID)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart.Items)
	}
}

// POST /cart/add
func AddToCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := middleware.IdentityFrom(c)
		if !ok {
			middleware.RespondError(c, apperr.Unauthorized("Unauthorized"))
			return
		}
		var req AddItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.RespondError(c, apperr.InvalidArgument("Invalid input: "+err.Error()))
			return
		}
		cart, err := AddItem(c.Request.Context(), db, id.UserID, req.ProductID, req.Quantity)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart.Items)
	}
}

// PUT /cart/update/:productId
func UpdateCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := middleware.IdentityFrom(c)
		if !ok {
			middleware.RespondError(c, apperr.Unauthorized("Unauthorized"))
			return
		}
		var req UpdateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.RespondError(c, apperr.InvalidArgument("Invalid input: "+err.Error()))
			return
		}
		cart, err := UpdateItem(c.Request.Context(), db, id.UserID, c.Param("productId"), req.Quantity)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart.Items)
	}
}

// DELETE /cart/remove/:productId
func RemoveCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := middleware.IdentityFrom(c)
		if !ok {
			middleware.RespondError(c, apperr.Unauthorized("Unauthorized"))
			return
		}
		cart, err := RemoveItem(c.Request.Context(), db, id.UserID, c.Param("productId"))
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart.Items)
	}
}

// DELETE /cart/clear
func ClearUserCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := middleware.IdentityFrom(c)
		if !ok {
			middleware.RespondError(c, apperr.Unauthorized("Unauthorized"))
			return
		}
		if err := ClearCart(c.Request.Context(), db, id.UserID); err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
	}
}

// GET /admin/users/:user_id/cart
func GetAdminUserCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")
		var user models.User
		if err := db.WithContext(c.Request.Context()).Select("id").First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				middleware.RespondError(c, apperr.NotFound("user not found"))
				return
			}
			middleware.RespondError(c, apperr.Internal("failed to fetch user", err))
			return
		}
		cart, err := GetCart(c.Request.Context(), db, userID)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart.Items)
	}
}
