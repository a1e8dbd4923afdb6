package handler

import (
	"context"
	"net/http"
	"time"

	appErrors "consultant-access/pkg/errors"
	"consultant-access/pkg/utils"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]HealthCheck
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status[name] = "unavailable"
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	if !healthy {
		utils.ErrorResponseWithDetails(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "One or more dependencies are unavailable",
			map[string]any{"checks": status})
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "ok", gin.H{"checks": status, "time": time.Now().UTC()})
}

// NotFound keeps unknown routes inside the response envelope.
func NotFound(c *gin.Context) {
	utils.ErrorResponse(c, http.StatusNotFound, appErrors.CodeNotFound, "Route not found")
}
