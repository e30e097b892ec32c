package handlers

import (
	"net/http"

	"review-central/internal/service"
)

// DashboardHandler serves the team leader views
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// TeamDashboard shows review progress for every participant of a cycle
// @Summary Team dashboard
// @Description status is one of all, at_risk, submitted, pending. q filters by name.
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param cycleId query string true "Cycle ID"
// @Param status query string false "Filter" default(all)
// @Param q query string false "Name search"
// @Success 200 {object} models.TeamDashboard
// @Failure 400 {object} map[string]string "Invalid filter"
// @Failure 404 {object} map[string]string "Cycle not found"
// @Router /team/dashboard [get]
func (h *DashboardHandler) TeamDashboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := service.DashboardFilter(query.Get("status"))
	if filter == "" {
		filter = service.FilterAll
	}

	dashboard, err := h.dashboard.TeamDashboard(r.Context(), query.Get("cycleId"), filter, query.Get("q"))
	if err != nil {
		respondWithServiceError(w, r, "team dashboard", err)
		return
	}
	respondWithJSON(w, http.StatusOK, dashboard)
}

// MemberInsights summarises the submitted reviews about one participant
// @Summary Member insights
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param cycleId path string true "Cycle ID"
// @Param userId path string true "User ID"
// @Success 200 {object} models.MemberInsights
// @Failure 400 {object} map[string]string "Nothing submitted yet"
// @Failure 502 {object} map[string]string "Model failure"
// @Failure 503 {object} map[string]string "AI disabled"
// @Router /team/dashboard/{cycleId}/members/{userId}/insights [post]
func (h *DashboardHandler) MemberInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.dashboard.MemberInsights(r.Context(), r.PathValue("cycleId"), r.PathValue("userId"))
	if err != nil {
		respondWithServiceError(w, r, "member insights", err)
		return
	}
	respondWithJSON(w, http.StatusOK, insights)
}
