package middleware

import (
	"consultant-access/internal/domain/identity"

	"github.com/gin-gonic/gin"
)

// RequestMetaMiddleware copies client ip, user agent and request id into the
// request context for the audit trail. Must run after RequestIDMiddleware.
func RequestMetaMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := identity.RequestMeta{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			RequestID: GetRequestID(c),
		}
		c.Request = c.Request.WithContext(identity.WithRequestMeta(c.Request.Context(), meta))
		c.Next()
	}
}
