package middleware

import (
	"context"
	"strings"

	"consultant-access/internal/domain/identity"
	appErrors "consultant-access/pkg/errors"

	"github.com/gin-gonic/gin"
)

const PrincipalKey = "principal"

// SessionVerifier resolves a bearer token to the account behind it.
type SessionVerifier interface {
	VerifySession(ctx context.Context, bearer string) (identity.Principal, error)
}

// Authenticate requires a valid bearer session and stores the principal both
// in the gin context and in the request context.
func Authenticate(verifier SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, appErrors.ErrInvalidSession)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			abortWithError(c, appErrors.ErrInvalidSession)
			return
		}

		principal, err := verifier.VerifySession(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(PrincipalKey, principal)
		c.Request = c.Request.WithContext(identity.WithPrincipal(c.Request.Context(), principal))

		c.Next()
	}
}

// GetPrincipal returns the principal stored by Authenticate.
func GetPrincipal(c *gin.Context) (identity.Principal, bool) {
	if value, exists := c.Get(PrincipalKey); exists {
		if p, ok := value.(identity.Principal); ok {
			return p, true
		}
	}
	return identity.FromContext(c.Request.Context())
}
