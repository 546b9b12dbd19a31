package paymentControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	cartControllers "github.com/junaidrashid-git/storefront-api/controllers/cart"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/pkg/apperr"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateIntentRequest struct {
	Amount decimal.Decimal `json:"amount"` // major units, e.g. 44.98
}

type CreateIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// POST /create-payment-intent
func CreatePaymentIntentHandler(db *gorm.DB, gateway Gateway, currency string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := middleware.IdentityFrom(c)
		if !ok {
			middleware.RespondError(c, apperr.Unauthorized("Unauthorized"))
			return
		}

		var req CreateIntentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.RespondError(c, apperr.InvalidArgument("Invalid input: "+err.Error()))
			return
		}
		if !req.Amount.IsPositive() {
			middleware.RespondError(c, apperr.InvalidArgument("amount must be greater than 0"))
			return
		}
		minor, err := models.ToMinorUnits(req.Amount)
		if err != nil {
			middleware.RespondError(c, apperr.InvalidArgument(err.Error()))
			return
		}

		cart, err := cartControllers.GetCart(c.Request.Context(), db, id.UserID)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		if total := cart.Total(); !total.IsZero() && !total.Equal(req.Amount) {
			middleware.RespondError(c, apperr.InvalidArgument("amount does not match cart total "+total.StringFixed(2)))
			return
		}

		intent, err := gateway.CreateIntent(c.Request.Context(), minor, currency, map[string]string{"userId": id.UserID})
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, CreateIntentResponse{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID})
	}
}
