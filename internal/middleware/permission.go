package middleware

import (
	"consultant-access/internal/domain/consultant"
	"consultant-access/internal/usecase/authz"
	appErrors "consultant-access/pkg/errors"

	"github.com/gin-gonic/gin"
)

// RequirePermission gates a route on one consultant capability, read from
// the store on every request.
func RequirePermission(guard *authz.Guard, capability consultant.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			abortWithError(c, appErrors.ErrInvalidSession)
			return
		}

		if err := guard.RequirePermission(c.Request.Context(), principal, capability); err != nil {
			abortWithError(c, err)
			return
		}

		c.Next()
	}
}
