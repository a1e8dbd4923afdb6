package handler

import (
	"net/http"
	"time"

	domainAudit "consultant-access/internal/domain/audit"
	auditUC "consultant-access/internal/usecase/audit"
	"consultant-access/pkg/pagination"
	"consultant-access/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuditHandler struct {
	recorder *auditUC.Recorder
}

func NewAuditHandler(recorder *auditUC.Recorder) *AuditHandler {
	return &AuditHandler{recorder: recorder}
}

// RegisterAdminRoutes expects Authenticate and AdminOnly on router.
func (h *AuditHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	logs := router.Group("/audit-logs")
	{
		logs.GET("/actors/:id", h.ByActor)
		logs.GET("/targets/:id", h.ByTarget)
	}
}

type auditRecordResponse struct {
	ID           uuid.UUID               `json:"id"`
	ActorID      *uuid.UUID              `json:"actor_id,omitempty"`
	ActorKind    domainAudit.ActorKind   `json:"actor_kind"`
	Action       domainAudit.Action      `json:"action"`
	TargetKind   *domainAudit.TargetKind `json:"target_kind,omitempty"`
	TargetID     *uuid.UUID              `json:"target_id,omitempty"`
	Details      map[string]any          `json:"details,omitempty"`
	IPAddress    string                  `json:"ip_address,omitempty"`
	UserAgent    string                  `json:"user_agent,omitempty"`
	RequestID    string                  `json:"request_id,omitempty"`
	Outcome      domainAudit.Outcome     `json:"outcome"`
	ErrorMessage *string                 `json:"error_message,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
}

func toAuditResponses(records []*domainAudit.Record) []auditRecordResponse {
	out := make([]auditRecordResponse, len(records))
	for i, r := range records {
		out[i] = auditRecordResponse{
			ID:           r.ID,
			ActorID:      r.ActorID,
			ActorKind:    r.ActorKind,
			Action:       r.Action,
			TargetKind:   r.TargetKind,
			TargetID:     r.TargetID,
			Details:      r.Details,
			IPAddress:    r.IPAddress,
			UserAgent:    r.UserAgent,
			RequestID:    r.RequestID,
			Outcome:      r.Outcome,
			ErrorMessage: r.ErrorMessage,
			CreatedAt:    r.CreatedAt,
		}
	}
	return out
}

func (h *AuditHandler) ByActor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	params := pagination.FromQuery(c)
	records, meta, err := h.recorder.ListByActor(c.Request.Context(), id, params)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", pagination.Response{Items: toAuditResponses(records), Meta: meta})
}

func (h *AuditHandler) ByTarget(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	params := pagination.FromQuery(c)
	records, meta, err := h.recorder.ListByTarget(c.Request.Context(), id, params)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", pagination.Response{Items: toAuditResponses(records), Meta: meta})
}
