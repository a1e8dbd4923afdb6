package handler

import (
	"net/http"

	"consultant-access/internal/domain/identity"
	"consultant-access/internal/middleware"
	"consultant-access/internal/usecase/auth"
	consultantUC "consultant-access/internal/usecase/consultant"
	"consultant-access/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthLimits are the per-endpoint window limiters of the public auth routes.
type AuthLimits struct {
	Login       gin.HandlerFunc
	Register    gin.HandlerFunc
	Reset       gin.HandlerFunc
	SetPassword gin.HandlerFunc
}

type AuthHandler struct {
	auth        *auth.Service
	consultants *consultantUC.Service
}

func NewAuthHandler(authService *auth.Service, consultants *consultantUC.Service) *AuthHandler {
	return &AuthHandler{auth: authService, consultants: consultants}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup, limits AuthLimits) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", limits.Login, h.Login)
		authGroup.POST("/admin/login", limits.Login, h.AdminLogin)
		authGroup.POST("/register", limits.Register, h.Register)
		authGroup.POST("/set-password", limits.SetPassword, h.SetPassword)
		authGroup.POST("/forgot-password", limits.Reset, h.ForgotPassword)
	}
}

// RegisterSessionRoutes expects Authenticate on router.
func (h *AuthHandler) RegisterSessionRoutes(router *gin.RouterGroup) {
	router.GET("/me", h.Me)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	if identifier, ok := middleware.GetLimitedIdentifier(c); ok {
		req.Identifier = identifier
	}

	resp, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Login successful", resp)
}

func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req auth.AdminLoginRequest
	if !bindJSON(c, &req) {
		return
	}
	if email, ok := middleware.GetLimitedIdentifier(c); ok {
		req.Email = email
	}

	req.Email = utils.SanitizeEmail(req.Email)

	resp, err := h.auth.AdminLogin(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Login successful", resp)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req consultantUC.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	req.Email = utils.SanitizeEmail(req.Email)
	req.Username = utils.SanitizeString(req.Username)
	req.Phone = sanitizePhone(req.Phone)

	resp, err := h.consultants.SelfRegister(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Registration received, an administrator will review your account", resp)
}

func (h *AuthHandler) SetPassword(c *gin.Context) {
	var req consultantUC.SetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.consultants.SetPassword(c.Request.Context(), &req); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Password set successfully, you can now log in", nil)
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req consultantUC.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.consultants.RequestPasswordReset(c.Request.Context(), &req); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "If the account exists and is active, a reset link has been sent", nil)
}

func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var account any
	switch p := principal.(type) {
	case identity.AdminPrincipal:
		account = auth.ToAdminResponse(p.Admin)
	case identity.ConsultantPrincipal:
		account = consultantUC.ToResponse(p.Consultant)
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"account_id": principal.AccountID(),
		"role":       principal.Role(),
		"account":    account,
	})
}
