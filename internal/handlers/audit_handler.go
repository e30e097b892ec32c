package handlers

import (
	"net/http"
	"strconv"

	"review-central/internal/service"
)

// AuditHandler handles audit log requests
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// ListAuditLogs returns a page of audit log entries, newest first
// @Summary List audit logs
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Entries per page" default(50)
// @Success 200 {object} service.AuditPage
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /admin/audit-logs [get]
func (h *AuditHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.audit.List(r.Context(), page, limit)
	if err != nil {
		respondWithServiceError(w, r, "list audit logs", err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
