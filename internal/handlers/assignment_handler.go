package handlers

import (
	"net/http"

	"review-central/internal/middleware"
	"review-central/internal/service"
)

// AssignmentHandler handles peer review assignments
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// Mine lists the assignments where the signed-in user is the reviewer
// @Summary List my assignments
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.PeerReviewAssignment
// @Router /assignments/mine [get]
func (h *AssignmentHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	assignments, err := h.assignments.GetAssignmentsForReviewer(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, r, "list my assignments", err)
		return
	}
	respondWithJSON(w, http.StatusOK, assignments)
}

// Create adds an assignment
// @Summary Create assignment
// @Description Reviewer and reviewee must differ. Their names and avatars are copied from the directory.
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.SaveAssignmentInput true "Assignment"
// @Success 201 {object} models.PeerReviewAssignment
// @Failure 400 {object} map[string]string "Validation failed"
// @Router /admin/assignments [post]
func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "", http.StatusCreated)
}

// Update replaces an assignment
// @Summary Update assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Param request body service.SaveAssignmentInput true "Assignment"
// @Success 200 {object} models.PeerReviewAssignment
// @Failure 400 {object} map[string]string "Validation failed"
// @Router /admin/assignments/{id} [put]
func (h *AssignmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, r.PathValue("id"), http.StatusOK)
}

func (h *AssignmentHandler) save(w http.ResponseWriter, r *http.Request, id string, status int) {
	var input service.SaveAssignmentInput
	if err := decodeJSON(r, w, &input); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}
	input.ID = id

	assignment, err := h.assignments.SaveAssignment(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, r, "save assignment", err)
		return
	}
	respondWithJSON(w, status, assignment)
}

// Delete removes an assignment
// @Summary Delete assignment
// @Tags Assignments
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Success 204
// @Failure 404 {object} map[string]string "Not found"
// @Router /admin/assignments/{id} [delete]
func (h *AssignmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.assignments.DeleteAssignment(r.Context(), r.PathValue("id")); err != nil {
		respondWithServiceError(w, r, "delete assignment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
