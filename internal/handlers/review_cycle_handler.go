package handlers

import (
	"net/http"

	"review-central/internal/service"
)

// ReviewCycleHandler handles review cycle administration
type ReviewCycleHandler struct {
	cycles      *service.ReviewCycleService
	assignments *service.AssignmentService
}

// NewReviewCycleHandler creates a new review cycle handler
func NewReviewCycleHandler(cycles *service.ReviewCycleService, assignments *service.AssignmentService) *ReviewCycleHandler {
	return &ReviewCycleHandler{cycles: cycles, assignments: assignments}
}

// List returns every cycle, latest start first
// @Summary List review cycles
// @Tags Review Cycles
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ReviewCycle
// @Router /admin/review-cycles [get]
func (h *ReviewCycleHandler) List(w http.ResponseWriter, r *http.Request) {
	cycles, err := h.cycles.GetReviewCycles(r.Context())
	if err != nil {
		respondWithServiceError(w, r, "list review cycles", err)
		return
	}
	respondWithJSON(w, http.StatusOK, cycles)
}

// ListActive returns the cycles currently open
// @Summary List active review cycles
// @Tags Review Cycles
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ReviewCycle
// @Router /review-cycles/active [get]
func (h *ReviewCycleHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	cycles, err := h.cycles.GetActiveReviewCycles(r.Context())
	if err != nil {
		respondWithServiceError(w, r, "list active review cycles", err)
		return
	}
	respondWithJSON(w, http.StatusOK, cycles)
}

// Get returns one cycle
// @Summary Get review cycle
// @Tags Review Cycles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cycle ID"
// @Success 200 {object} models.ReviewCycle
// @Failure 404 {object} map[string]string "Not found"
// @Router /admin/review-cycles/{id} [get]
func (h *ReviewCycleHandler) Get(w http.ResponseWriter, r *http.Request) {
	cycle, err := h.cycles.GetReviewCycle(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, r, "get review cycle", err)
		return
	}
	respondWithJSON(w, http.StatusOK, cycle)
}

// Create adds a cycle
// @Summary Create review cycle
// @Tags Review Cycles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.SaveReviewCycleInput true "Cycle"
// @Success 201 {object} models.ReviewCycle
// @Failure 400 {object} map[string]string "Validation failed"
// @Router /admin/review-cycles [post]
func (h *ReviewCycleHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "", http.StatusCreated)
}

// Update replaces a cycle
// @Summary Update review cycle
// @Tags Review Cycles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cycle ID"
// @Param request body service.SaveReviewCycleInput true "Cycle"
// @Success 200 {object} models.ReviewCycle
// @Failure 400 {object} map[string]string "Validation failed"
// @Router /admin/review-cycles/{id} [put]
func (h *ReviewCycleHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, r.PathValue("id"), http.StatusOK)
}

func (h *ReviewCycleHandler) save(w http.ResponseWriter, r *http.Request, id string, status int) {
	var input service.SaveReviewCycleInput
	if err := decodeJSON(r, w, &input); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}
	input.ID = id

	cycle, err := h.cycles.SaveReviewCycle(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, r, "save review cycle", err)
		return
	}
	respondWithJSON(w, status, cycle)
}

// Delete removes a cycle
// @Summary Delete review cycle
// @Tags Review Cycles
// @Security BearerAuth
// @Param id path string true "Cycle ID"
// @Success 204
// @Failure 404 {object} map[string]string "Not found"
// @Router /admin/review-cycles/{id} [delete]
func (h *ReviewCycleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.cycles.DeleteReviewCycle(r.Context(), r.PathValue("id")); err != nil {
		respondWithServiceError(w, r, "delete review cycle", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Assignments lists the peer review assignments of a cycle
// @Summary List cycle assignments
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cycle ID"
// @Success 200 {array} models.PeerReviewAssignment
// @Router /admin/review-cycles/{id}/assignments [get]
func (h *ReviewCycleHandler) Assignments(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.assignments.GetAssignmentsByCycle(r.Context(), r.PathValue("id")))
}
