package handlers

import (
	"net/http"

	"review-central/internal/ai"
)

// AIHandler exposes the review analysis flows
type AIHandler struct {
	flows *ai.Flows
}

// NewAIHandler creates a new AI handler
func NewAIHandler(flows *ai.Flows) *AIHandler {
	return &AIHandler{flows: flows}
}

// GenerateReviewQuestions drafts questions for a questionnaire
// @Summary Generate review questions
// @Description numberOfQuestions defaults to 5 and must be between 3 and 10
// @Tags AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ai.GenerateReviewQuestionsInput true "Topic and review type"
// @Success 200 {object} ai.GenerateReviewQuestionsOutput
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 502 {object} map[string]string "Model failure"
// @Failure 503 {object} map[string]string "AI disabled"
// @Router /ai/review-questions [post]
func (h *AIHandler) GenerateReviewQuestions(w http.ResponseWriter, r *http.Request) {
	var in ai.GenerateReviewQuestionsInput
	if err := decodeJSON(r, w, &in); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	out, err := h.flows.GenerateReviewQuestions(r.Context(), in)
	if err != nil {
		respondWithServiceError(w, r, "generate review questions", err)
		return
	}
	respondWithJSON(w, http.StatusOK, out)
}

// IdentifyImprovementAreas extracts improvement areas from review text
// @Summary Identify improvement areas
// @Tags AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ai.IdentifyImprovementAreasInput true "Self and peer review text"
// @Success 200 {object} ai.IdentifyImprovementAreasOutput
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 502 {object} map[string]string "Model failure"
// @Failure 503 {object} map[string]string "AI disabled"
// @Router /ai/improvement-areas [post]
func (h *AIHandler) IdentifyImprovementAreas(w http.ResponseWriter, r *http.Request) {
	var in ai.IdentifyImprovementAreasInput
	if err := decodeJSON(r, w, &in); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	out, err := h.flows.IdentifyImprovementAreas(r.Context(), in)
	if err != nil {
		respondWithServiceError(w, r, "identify improvement areas", err)
		return
	}
	respondWithJSON(w, http.StatusOK, out)
}

// SummarizeFeedback condenses the reviews of one employee
// @Summary Summarize feedback
// @Tags AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ai.SummarizeFeedbackInput true "Employee and review text"
// @Success 200 {object} ai.SummarizeFeedbackOutput
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 502 {object} map[string]string "Model failure"
// @Failure 503 {object} map[string]string "AI disabled"
// @Router /ai/feedback-summary [post]
func (h *AIHandler) SummarizeFeedback(w http.ResponseWriter, r *http.Request) {
	var in ai.SummarizeFeedbackInput
	if err := decodeJSON(r, w, &in); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	out, err := h.flows.SummarizeFeedback(r.Context(), in)
	if err != nil {
		respondWithServiceError(w, r, "summarize feedback", err)
		return
	}
	respondWithJSON(w, http.StatusOK, out)
}
