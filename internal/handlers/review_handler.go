package handlers

import (
	"context"
	"net/http"

	"review-central/internal/middleware"
	"review-central/internal/models"
	"review-central/internal/service"
)

// ReviewHandler handles writing and reading reviews
type ReviewHandler struct {
	reviews *service.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// StartSelfReviewRequest opens the self assessment of a cycle
type StartSelfReviewRequest struct {
	ReviewCycleID   string `json:"reviewCycleId"`
	QuestionnaireID string `json:"questionnaireId"`
}

// AnswersRequest carries the answers of a draft or submission
type AnswersRequest struct {
	Answers []models.Answer `json:"answers"`
}

// Mine lists the reviews written by the signed-in user
// @Summary List my reviews
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Review
// @Router /reviews/mine [get]
func (h *ReviewHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	reviews, err := h.reviews.GetMyReviews(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, r, "list my reviews", err)
		return
	}
	respondWithJSON(w, http.StatusOK, reviews)
}

// StartSelf returns the user's self review for a cycle, creating a draft if needed
// @Summary Start self review
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body StartSelfReviewRequest true "Cycle and questionnaire"
// @Success 200 {object} models.Review
// @Failure 400 {object} map[string]string "Validation failed"
// @Router /reviews/self [post]
func (h *ReviewHandler) StartSelf(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req StartSelfReviewRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	review, err := h.reviews.StartSelfReview(r.Context(), userID, req.ReviewCycleID, req.QuestionnaireID)
	if err != nil {
		respondWithServiceError(w, r, "start self review", err)
		return
	}
	respondWithJSON(w, http.StatusOK, review)
}

// StartPeer opens the review for an assignment of the signed-in reviewer
// @Summary Start peer review
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Success 200 {object} models.Review
// @Failure 403 {object} map[string]string "Not the reviewer"
// @Failure 404 {object} map[string]string "Assignment not found"
// @Router /assignments/{id}/review [post]
func (h *ReviewHandler) StartPeer(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	review, err := h.reviews.StartPeerReview(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, r, "start peer review", err)
		return
	}
	respondWithJSON(w, http.StatusOK, review)
}

// Get returns a review with its questions
// @Summary Get review
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Success 200 {object} models.ReviewDetail
// @Failure 403 {object} map[string]string "Not the author"
// @Failure 404 {object} map[string]string "Not found"
// @Router /reviews/{id} [get]
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	review, err := h.reviews.GetReview(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, r, "get review", err)
		return
	}
	respondWithJSON(w, http.StatusOK, review)
}

// SaveDraft stores answers without submitting
// @Summary Save review draft
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Param request body AnswersRequest true "Answers"
// @Success 200 {object} models.Review
// @Failure 400 {object} map[string]string "Unknown question or review already submitted"
// @Router /reviews/{id}/draft [put]
func (h *ReviewHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	h.withAnswers(w, r, "save review draft", h.reviews.SaveDraft)
}

// Submit completes a review. Every question needs a non-blank answer.
// @Summary Submit review
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Param request body AnswersRequest true "Answers"
// @Success 200 {object} models.Review
// @Failure 400 {object} map[string]string "Incomplete review"
// @Router /reviews/{id}/submit [post]
func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.withAnswers(w, r, "submit review", h.reviews.Submit)
}

func (h *ReviewHandler) withAnswers(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	apply func(ctx context.Context, userID, reviewID string, answers []models.Answer) (*models.Review, error),
) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req AnswersRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	review, err := apply(r.Context(), userID, r.PathValue("id"), req.Answers)
	if err != nil {
		respondWithServiceError(w, r, op, err)
		return
	}
	respondWithJSON(w, http.StatusOK, review)
}
