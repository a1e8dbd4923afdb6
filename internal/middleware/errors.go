package middleware

import (
	"net/http"

	"consultant-access/internal/logger"
	appErrors "consultant-access/pkg/errors"
	"consultant-access/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func abortWithError(c *gin.Context, err error) {
	defer c.Abort()

	if appErr, ok := appErrors.As(err); ok {
		utils.ErrorResponseWithDetails(c, appErr.HTTPStatus(), appErr.Code, appErr.Message, appErr.Details)
		return
	}

	logger.WithRequestID(GetRequestID(c)).Error("Internal server error",
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Error(err),
	)
	utils.ErrorResponse(c, http.StatusInternalServerError, appErrors.CodeInternal, appErrors.ErrInternal.Message)
}
