package handler

import (
	"net/http"
	"strings"

	domainConsultant "consultant-access/internal/domain/consultant"
	consultantUC "consultant-access/internal/usecase/consultant"
	"consultant-access/pkg/pagination"
	"consultant-access/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ConsultantHandler serves the admin side of the consultant lifecycle.
type ConsultantHandler struct {
	service *consultantUC.Service
}

func NewConsultantHandler(service *consultantUC.Service) *ConsultantHandler {
	return &ConsultantHandler{service: service}
}

// RegisterAdminRoutes expects Authenticate and AdminOnly on router.
func (h *ConsultantHandler) RegisterAdminRoutes(router *gin.RouterGroup, resendLimit gin.HandlerFunc) {
	consultants := router.Group("/consultants")
	{
		consultants.POST("", h.Create)
		consultants.GET("", h.List)
		consultants.GET("/:id", h.Get)
		consultants.POST("/:id/approve", h.Approve)
		consultants.POST("/:id/reject", h.Reject)
		consultants.POST("/:id/suspend", h.Suspend)
		consultants.POST("/:id/reactivate", h.Reactivate)
		consultants.PATCH("/:id/permissions", h.UpdatePermissions)
		consultants.POST("/:id/resend-setup", resendLimit, h.ResendSetupLink)
		consultants.POST("/:id/unlock", h.Unlock)
	}
}

func (h *ConsultantHandler) Create(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req consultantUC.CreateRequest
	if !bindJSON(c, &req) {
		return
	}

	req.Email = utils.SanitizeEmail(req.Email)
	req.Username = utils.SanitizeString(req.Username)
	req.Phone = sanitizePhone(req.Phone)

	resp, err := h.service.Create(c.Request.Context(), principal.AccountID(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Consultant created", resp)
}

func (h *ConsultantHandler) List(c *gin.Context) {
	params := pagination.FromQuery(c)
	req := consultantUC.ListRequest{
		Search: c.Query("search"),
		Page:   params.Page,
		Limit:  params.Limit,
	}
	if raw := c.Query("status"); raw != "" {
		status := domainConsultant.Status(strings.ToUpper(raw))
		req.Status = &status
	}

	resp, err := h.service.List(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

func (h *ConsultantHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

func (h *ConsultantHandler) Approve(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req consultantUC.ApproveRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	notify := req.Notify == nil || *req.Notify

	resp, err := h.service.Approve(c.Request.Context(), id, principal.AccountID(), notify)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Consultant approved", resp)
}

func (h *ConsultantHandler) Reject(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req consultantUC.RejectRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Reject(c.Request.Context(), id, principal.AccountID(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Consultant rejected", resp)
}

func (h *ConsultantHandler) Suspend(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req consultantUC.SuspendRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	resp, err := h.service.Suspend(c.Request.Context(), id, principal.AccountID(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Consultant suspended", resp)
}

func (h *ConsultantHandler) Reactivate(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.Reactivate(c.Request.Context(), id, principal.AccountID())
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Consultant reactivated", resp)
}

func (h *ConsultantHandler) UpdatePermissions(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var patch domainConsultant.PermissionPatch
	if !bindJSON(c, &patch) {
		return
	}

	resp, err := h.service.UpdatePermissions(c.Request.Context(), id, principal.AccountID(), &patch)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Permissions updated", resp)
}

func (h *ConsultantHandler) ResendSetupLink(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.ResendSetupLink(c.Request.Context(), id, principal.AccountID()); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Setup link sent", nil)
}

func (h *ConsultantHandler) Unlock(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.Unlock(c.Request.Context(), id, principal.AccountID())
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Consultant unlocked", resp)
}
