package handlers

import (
	"net/http"

	"review-central/internal/models"
	"review-central/internal/service"
)

// QuestionnaireHandler handles questionnaire templates and their versions
type QuestionnaireHandler struct {
	questionnaires *service.QuestionnaireService
}

// NewQuestionnaireHandler creates a new questionnaire handler
func NewQuestionnaireHandler(questionnaires *service.QuestionnaireService) *QuestionnaireHandler {
	return &QuestionnaireHandler{questionnaires: questionnaires}
}

// ListLatest returns the newest version of every template
// @Summary List questionnaires
// @Description Latest version of each template, ordered by name
// @Tags Questionnaires
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.QuestionnaireVersion
// @Router /admin/questionnaires [get]
func (h *QuestionnaireHandler) ListLatest(w http.ResponseWriter, r *http.Request) {
	list, err := h.questionnaires.GetLatestQuestionnaires(r.Context())
	if err != nil {
		respondWithServiceError(w, r, "list questionnaires", err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// ListActive returns the active questionnaires of one review type
// @Summary List active questionnaires
// @Tags Questionnaires
// @Produce json
// @Security BearerAuth
// @Param type query string true "Review type (self or peer)"
// @Success 200 {array} models.QuestionnaireVersion
// @Failure 400 {object} map[string]string "Unknown type"
// @Router /questionnaires/active [get]
func (h *QuestionnaireHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	qType := models.ReviewType(r.URL.Query().Get("type"))
	list, err := h.questionnaires.GetActiveQuestionnaires(r.Context(), qType)
	if err != nil {
		respondWithServiceError(w, r, "list active questionnaires", err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// Get returns one questionnaire version
// @Summary Get questionnaire version
// @Tags Questionnaires
// @Produce json
// @Security BearerAuth
// @Param id path string true "Version ID"
// @Success 200 {object} models.QuestionnaireVersion
// @Failure 404 {object} map[string]string "Not found"
// @Router /admin/questionnaires/{id} [get]
func (h *QuestionnaireHandler) Get(w http.ResponseWriter, r *http.Request) {
	q, err := h.questionnaires.GetQuestionnaire(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, r, "get questionnaire", err)
		return
	}
	respondWithJSON(w, http.StatusOK, q)
}

// Save creates a template, or a new version when id and templateId are given
// @Summary Save questionnaire
// @Description Without id and templateId a new template is created at version 1. With both, the template's active version is archived and the content is stored as the next version.
// @Tags Questionnaires
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.SaveQuestionnaireInput true "Questionnaire"
// @Success 201 {object} models.QuestionnaireVersion
// @Failure 400 {object} map[string]string "Validation failed"
// @Failure 404 {object} map[string]string "Previous version not found"
// @Router /admin/questionnaires [post]
func (h *QuestionnaireHandler) Save(w http.ResponseWriter, r *http.Request) {
	var input service.SaveQuestionnaireInput
	if err := decodeJSON(r, w, &input); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	q, err := h.questionnaires.SaveQuestionnaire(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, r, "save questionnaire", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, q)
}

// Versions returns the history of a template, newest first
// @Summary List template versions
// @Tags Questionnaires
// @Produce json
// @Security BearerAuth
// @Param templateId path string true "Template ID"
// @Success 200 {array} models.QuestionnaireVersion
// @Router /admin/questionnaires/templates/{templateId}/versions [get]
func (h *QuestionnaireHandler) Versions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.questionnaires.GetTemplateVersions(r.Context(), r.PathValue("templateId"))
	if err != nil {
		respondWithServiceError(w, r, "list template versions", err)
		return
	}
	respondWithJSON(w, http.StatusOK, versions)
}

// Deactivate archives every version of a template
// @Summary Deactivate template
// @Tags Questionnaires
// @Security BearerAuth
// @Param templateId path string true "Template ID"
// @Success 204
// @Router /admin/questionnaires/templates/{templateId}/deactivate [post]
func (h *QuestionnaireHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.questionnaires.DeactivateTemplate(r.Context(), r.PathValue("templateId")); err != nil {
		respondWithServiceError(w, r, "deactivate template", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
