package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/auth"
	"github.com/junaidrashid-git/storefront-api/pkg/apperr"
)

const identityKey = "identity"

// RequireUser validates the bearer token and stores the caller's Identity on the context.
func RequireUser(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
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

		WithIdentity(c, id)
		c.Next()
	}
}

func WithIdentity(c *gin.Context, id auth.Identity) {
	c.Set(identityKey, id)
}

func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

// bearerToken accepts both "Bearer <token>" and a bare token.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
