package middleware

import (
	"consultant-access/internal/domain/identity"
	"consultant-access/internal/usecase/authz"
	appErrors "consultant-access/pkg/errors"

	"github.com/gin-gonic/gin"
)

// RequireRoles must run after Authenticate.
func RequireRoles(guard *authz.Guard, allowedRoles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			abortWithError(c, appErrors.ErrInvalidSession)
			return
		}

		if err := guard.RequireRole(principal, allowedRoles...); err != nil {
			abortWithError(c, err)
			return
		}

		c.Next()
	}
}

func AdminOnly(guard *authz.Guard) gin.HandlerFunc {
	return RequireRoles(guard, identity.RoleAdmin)
}

func ConsultantOnly(guard *authz.Guard) gin.HandlerFunc {
	return RequireRoles(guard, identity.RoleConsultant)
}
