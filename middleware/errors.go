package middleware

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/pkg/apperr"
)

const loggerKey = "logger"

// RespondError writes err as {"error","message","kind","code"}; "message" mirrors "error".
// Internal details are logged, never returned.
func RespondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	body := gin.H{"error": err.Error(), "kind": kind}

	var e *apperr.Error
	if errors.As(err, &e) {
		body["error"] = e.Message
		if e.Code != "" {
			body["code"] = e.Code
		}
	}

	if kind == apperr.KindInternal || kind == apperr.KindUpstream {
		Logger(c).Error("request failed", "kind", kind, "err", err)
	}
	if kind == apperr.KindInternal {
		body["error"] = "internal server error"
	}
	body["message"] = body["error"]
	c.JSON(apperr.HTTPStatus(kind), body)
}

func Logger(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}
