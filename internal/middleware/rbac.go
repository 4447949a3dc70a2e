package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
	"github.com/MarivaldoDev/sistema-escolar/pkg/response"
)

// RequireRoles blocks requests whose token role is not in the allowed set.
// Superusers always pass. This is only a coarse route gate; the services
// re-evaluate the fine-grained relationship checks per request.
func RequireRoles(roles ...models.AccountRole) gin.HandlerFunc {
	allowed := make(map[models.AccountRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if claims.Superuser {
			c.Next()
			return
		}
		if _, ok := allowed[claims.Role]; ok {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrAccessDenied)
		c.Abort()
	}
}
