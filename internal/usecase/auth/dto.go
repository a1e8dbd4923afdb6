package auth

import (
	"time"

	"consultant-access/internal/domain/admin"
	consultantUC "consultant-access/internal/usecase/consultant"

	"github.com/google/uuid"
)

type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,max=255"`
	Password   string `json:"password" validate:"required,max=128"`
}

type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=128"`
}

type LoginResponse struct {
	Token      string                 `json:"token"`
	ExpiresAt  time.Time              `json:"expires_at"`
	Consultant *consultantUC.Response `json:"consultant"`
}

type AdminResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
}

type AdminLoginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Admin     *AdminResponse `json:"admin"`
}

func ToAdminResponse(a *admin.Admin) *AdminResponse {
	if a == nil {
		return nil
	}
	return &AdminResponse{
		ID:          a.ID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		Role:        a.Role,
	}
}
