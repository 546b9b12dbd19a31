package orderControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/pkg/apperr"
	"github.com/junaidrashid-git/storefront-api/pkg/idempotency"
)

type UpdateOrderStatusRequest struct {
	OrderStatus string `json:"orderStatus" binding:"required"`
}

// -------- Handlers --------

// Place order (user). A repeated Idempotency-Key is rejected while the first request holds it.
func PlaceOrderHandler(svc *Service, idem *idempotency.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := middleware.IdentityFrom(c)
		if !ok {
			middleware.RespondError(c, apperr.Unauthorized("Unauthorized"))
			return
		}
		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.RespondError(c, apperr.InvalidArgument("Invalid input: "+err.Error()))
			return
		}

		ctx := c.Request.Context()
		key := idempotency.FromRequest(c.Request)
		reserved := false
		if key != "" && idem != nil {
			if len(key) > idempotency.MaxKeyLength {
				middleware.RespondError(c, apperr.InvalidArgument("Idempotency-Key is too long"))
				return
			}
			fresh, err := idem.Reserve(ctx, id.UserID, key)
			if err != nil {
				middleware.RespondError(c, apperr.Upstream("idempotency store unavailable", err))
				return
			}
			if !fresh {
				middleware.RespondError(c, &apperr.Error{Kind: apperr.KindConflict, Code: "duplicate_request", Message: "request with this Idempotency-Key was already processed"})
				return
			}
			reserved = true
		}

		order, err := svc.Checkout(ctx, id, req)
		if err != nil {
			if reserved {
				if rerr := idem.Release(ctx, id.UserID, key); rerr != nil {
					middleware.Logger(c).Warn("release idempotency key", "err", rerr)
				}
			}
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

func GetUserOrdersHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := middleware.IdentityFrom(c)
		if !ok {
			middleware.RespondError(c, apperr.Unauthorized("Unauthorized"))
			return
		}
		orders, err := svc.ListOrders(c.Request.Context(), id.UserID)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

func GetOrderByIDHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := middleware.IdentityFrom(c)
		if !ok {
			middleware.RespondError(c, apperr.Unauthorized("Unauthorized"))
			return
		}
		order, err := svc.GetOrder(c.Request.Context(), id.UserID, c.Param("id"))
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func GetAllOrdersHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.AllOrders(c.Request.Context())
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// Update order status (admin)
func UpdateOrderStatusHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.RespondError(c, apperr.InvalidArgument(err.Error()))
			return
		}
		order, err := svc.SetStatus(c.Request.Context(), c.Param("id"), req.OrderStatus)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
