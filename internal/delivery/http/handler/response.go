package handler

import (
	"errors"
	"io"
	"net/http"

	"consultant-access/internal/domain/identity"
	"consultant-access/internal/logger"
	"consultant-access/internal/middleware"
	appErrors "consultant-access/pkg/errors"
	"consultant-access/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// respondWithError renders AppErrors with their own status and code. Anything
// else is logged and answered with a generic 500.
func respondWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	if appErr, ok := appErrors.As(err); ok {
		details := appErr.Details
		if appErr.Kind == appErrors.KindValidation && appErr.Err != nil {
			if fields := utils.ValidationDetails(appErr.Err); fields != nil {
				details = fields
			}
		}
		utils.ErrorResponseWithDetails(c, appErr.HTTPStatus(), appErr.Code, appErr.Message, details)
		return
	}

	logger.WithRequestID(middleware.GetRequestID(c)).Error("Internal server error",
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Error(err),
	)
	utils.ErrorResponse(c, http.StatusInternalServerError, appErrors.CodeInternal, appErrors.ErrInternal.Message)
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, appErrors.CodeValidation, "Invalid request body")
		return false
	}
	return true
}

// bindOptionalJSON accepts an empty body, including a chunked one with no
// declared length.
func bindOptionalJSON(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		utils.ErrorResponse(c, http.StatusBadRequest, appErrors.CodeValidation, "Invalid request body")
		return false
	}
	return true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, appErrors.CodeValidation, "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func currentPrincipal(c *gin.Context) (identity.Principal, bool) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondWithError(c, appErrors.ErrInvalidSession)
		return nil, false
	}
	return principal, true
}

func sanitizePhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	sanitized := utils.SanitizePhone(*phone)
	if sanitized == "" {
		return nil
	}
	return &sanitized
}
