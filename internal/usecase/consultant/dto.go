package consultant

import (
	"time"

	domainConsultant "consultant-access/internal/domain/consultant"

	"github.com/google/uuid"
)

// Request DTOs
type CreateRequest struct {
	Username      string                            `json:"username" validate:"required,username"`
	Email         string                            `json:"email" validate:"required,email,max=255"`
	FullName      string                            `json:"full_name" validate:"required,min=2,max=255"`
	Phone         *string                           `json:"phone" validate:"omitempty,phone"`
	AgencyName    *string                           `json:"agency_name" validate:"omitempty,max=255"`
	LicenseNumber *string                           `json:"license_number" validate:"omitempty,max=100"`
	Regions       []string                          `json:"regions" validate:"omitempty,max=50,dive,region"`
	Permissions   *domainConsultant.PermissionPatch `json:"permissions"`
}

type RegisterRequest struct {
	Username      string   `json:"username" validate:"required,username"`
	Email         string   `json:"email" validate:"required,email,max=255"`
	FullName      string   `json:"full_name" validate:"required,min=2,max=255"`
	Phone         *string  `json:"phone" validate:"omitempty,phone"`
	AgencyName    *string  `json:"agency_name" validate:"omitempty,max=255"`
	LicenseNumber *string  `json:"license_number" validate:"omitempty,max=100"`
	Regions       []string `json:"regions" validate:"omitempty,max=50,dive,region"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=1000"`
	Notify *bool  `json:"notify"`
}

type ApproveRequest struct {
	Notify *bool `json:"notify"`
}

type SuspendRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

type SetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

type ForgotPasswordRequest struct {
	Identifier string `json:"identifier" validate:"required,max=255"`
}

type ListRequest struct {
	Status *domainConsultant.Status
	Search string
	Page   int
	Limit  int
}

// Response DTOs

// Response is the sanitized projection: no password hash, token or lockout fields.
type Response struct {
	ID              uuid.UUID                    `json:"id"`
	Username        string                       `json:"username"`
	Email           string                       `json:"email"`
	FullName        string                       `json:"full_name"`
	Phone           *string                      `json:"phone,omitempty"`
	AgencyName      *string                      `json:"agency_name,omitempty"`
	LicenseNumber   *string                      `json:"license_number,omitempty"`
	Regions         []string                     `json:"regions"`
	Permissions     domainConsultant.Permissions `json:"permissions"`
	Status          domainConsultant.Status      `json:"status"`
	HasPassword     bool                         `json:"has_password"`
	CreatedBy       *uuid.UUID                   `json:"created_by,omitempty"`
	ApprovedBy      *uuid.UUID                   `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time                   `json:"approved_at,omitempty"`
	RejectedReason  *string                      `json:"rejected_reason,omitempty"`
	RejectedAt      *time.Time                   `json:"rejected_at,omitempty"`
	SuspendedAt     *time.Time                   `json:"suspended_at,omitempty"`
	SuspendedReason *string                      `json:"suspended_reason,omitempty"`
	LastLogin       *time.Time                   `json:"last_login,omitempty"`
	CreatedAt       time.Time                    `json:"created_at"`
	UpdatedAt       time.Time                    `json:"updated_at"`
}

type ApproveResponse struct {
	Consultant *Response `json:"consultant"`
	// Only set when the admin opted out of the notification
	SetupLink string `json:"setup_link,omitempty"`
}

type PermissionsResponse struct {
	ID          uuid.UUID                    `json:"id"`
	Permissions domainConsultant.Permissions `json:"permissions"`
}

func ToResponse(c *domainConsultant.Consultant) *Response {
	if c == nil {
		return nil
	}
	regions := c.Regions
	if regions == nil {
		regions = []string{}
	}
	return &Response{
		ID:              c.ID,
		Username:        c.Username,
		Email:           c.Email,
		FullName:        c.FullName,
		Phone:           c.Phone,
		AgencyName:      c.AgencyName,
		LicenseNumber:   c.LicenseNumber,
		Regions:         regions,
		Permissions:     c.Permissions,
		Status:          c.Status,
		HasPassword:     c.HasPassword(),
		CreatedBy:       c.CreatedBy,
		ApprovedBy:      c.ApprovedBy,
		ApprovedAt:      c.ApprovedAt,
		RejectedReason:  c.RejectedReason,
		RejectedAt:      c.RejectedAt,
		SuspendedAt:     c.SuspendedAt,
		SuspendedReason: c.SuspendedReason,
		LastLogin:       c.LastLogin,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func ToResponses(items []*domainConsultant.Consultant) []*Response {
	out := make([]*Response, len(items))
	for i, c := range items {
		out[i] = ToResponse(c)
	}
	return out
}
