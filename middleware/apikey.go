package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/auth"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/pkg/apperr"
)

const APIKeyHeader = "X-API-KEY"

// RequireAdmin lets a request through when it carries the admin API key or an admin bearer token.
// An empty apiKey disables key access entirely.
func RequireAdmin(tokens *auth.Tokens, apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if given := c.GetHeader(APIKeyHeader); apiKey != "" && given != "" {
			if subtle.ConstantTimeCompare([]byte(given), []byte(apiKey)) != 1 {
				RespondError(c, apperr.Unauthorized("Invalid or missing API key"))
				c.Abort()
				return
			}
			WithIdentity(c, auth.Identity{UserID: "api-key", Role: models.RoleAdmin})
			c.Next()
			return
		}

		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			RespondError(c, apperr.Unauthorized("Authorization header is missing"))
			c.Abort()
			return
		}
		id, err := tokens.Parse(tokenString)
		if err != nil {
			RespondError(c, apperr.Unauthorized("Invalid or expired token"))
			c.Abort()
			return
		}
		if !id.IsAdmin() {
			RespondError(c, apperr.Forbidden("admin access required"))
			c.Abort()
			return
		}
		WithIdentity(c, id)
		c.Next()
	}
}
