package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"review-central/internal/models"
	"review-central/internal/repository"
)

// ReviewService handles writing, saving and submitting reviews
type ReviewService struct {
	reviews        ReviewStore
	assignments    AssignmentStore
	questionnaires QuestionnaireStore
	cycles         ReviewCycleStore
}

// NewReviewService creates a new review service
func NewReviewService(reviews ReviewStore, assignments AssignmentStore, questionnaires QuestionnaireStore, cycles ReviewCycleStore) *ReviewService {
	return &ReviewService{
		reviews:        reviews,
		assignments:    assignments,
		questionnaires: questionnaires,
		cycles:         cycles,
	}
}

// StartSelfReview returns the user's self review for the cycle, creating a
// draft on the first call
func (s *ReviewService) StartSelfReview(ctx context.Context, userID, cycleID, questionnaireID string) (*models.Review, error) {
	cycleID = strings.TrimSpace(cycleID)
	questionnaireID = strings.TrimSpace(questionnaireID)
	if cycleID == "" || questionnaireID == "" {
		return nil, validationf("reviewCycleId and questionnaireId are required")
	}

	existing, err := s.reviews.GetSelfReview(ctx, userID, cycleID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to load self review: %w", err)
	}

	cycle, err := s.cycles.GetByID(ctx, cycleID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, validationf("review cycle %s does not exist", cycleID)
		}
		return nil, fmt.Errorf("failed to load review cycle: %w", err)
	}
	if cycle.Status == models.CycleStatusClosed {
		return nil, validationf("review cycle %s is closed", cycleID)
	}

	questionnaire, err := s.loadQuestionnaire(ctx, questionnaireID)
	if err != nil {
		return nil, err
	}
	if questionnaire.Type != models.ReviewTypeSelf {
		return nil, validationf("questionnaire %s is not a self review questionnaire", questionnaireID)
	}

	review := &models.Review{
		ID:              uuid.NewString(),
		Type:            models.ReviewTypeSelf,
		ReviewCycleID:   cycleID,
		QuestionnaireID: questionnaireID,
		AuthorID:        userID,
		RevieweeID:      userID,
		Status:          models.ReviewStatusDraft,
		Answers:         []models.Answer{},
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if repository.IsUniqueViolation(err) {
			// a concurrent first call created the draft
			return s.reviews.GetSelfReview(ctx, userID, cycleID)
		}
		return nil, fmt.Errorf("failed to create self review: %w", err)
	}
	return review, nil
}

// StartPeerReview returns the review written for an assignment, creating a
// draft on the first call. A pending assignment moves to in_progress, also
// when the draft already exists from a call whose status update failed.
func (s *ReviewService) StartPeerReview(ctx context.Context, userID, assignmentID string) (*models.Review, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.ReviewerID != userID {
		return nil, ErrForbidden
	}
	if assignment.Status == models.AssignmentStatusDeclined {
		return nil, validationf("assignment %s was declined", assignmentID)
	}

	review, err := s.reviews.GetByAssignment(ctx, assignmentID)
	switch {
	case errors.Is(err, ErrNotFound):
		review, err = s.createPeerDraft(ctx, userID, assignment)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load peer review: %w", err)
	}

	if assignment.Status == models.AssignmentStatusPending {
		if err := s.assignments.UpdateStatus(ctx, assignment.ID, models.AssignmentStatusInProgress, nil); err != nil {
			return nil, fmt.Errorf("failed to update assignment status: %w", err)
		}
	}
	return review, nil
}

func (s *ReviewService) createPeerDraft(ctx context.Context, userID string, assignment *models.PeerReviewAssignment) (*models.Review, error) {
	review := &models.Review{
		ID:              uuid.NewString(),
		Type:            models.ReviewTypePeer,
		ReviewCycleID:   assignment.ReviewCycleID,
		QuestionnaireID: assignment.QuestionnaireID,
		AuthorID:        userID,
		RevieweeID:      assignment.RevieweeID,
		AssignmentID:    &assignment.ID,
		Status:          models.ReviewStatusDraft,
		Answers:         []models.Answer{},
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if repository.IsUniqueViolation(err) {
			// a concurrent first call created the draft
			return s.reviews.GetByAssignment(ctx, assignment.ID)
		}
		return nil, fmt.Errorf("failed to create peer review: %w", err)
	}
	return review, nil
}

// SaveDraft replaces the answers of a draft. Blank answers are allowed.
func (s *ReviewService) SaveDraft(ctx context.Context, userID, reviewID string, answers []models.Answer) (*models.Review, error) {
	review, questionnaire, err := s.loadOwnDraft(ctx, userID, reviewID)
	if err != nil {
		return nil, err
	}

	cleaned, err := matchAnswers(questionnaire, answers)
	if err != nil {
		return nil, err
	}
	review.Answers = cleaned

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	return review, nil
}

// Submit stores the final answers. Every question needs a non-blank answer.
// Submitting a peer review completes its assignment; resubmitting a peer
// review whose assignment is still open only completes the assignment.
// Reviews for declined assignments cannot be submitted.
func (s *ReviewService) Submit(ctx context.Context, userID, reviewID string, answers []models.Answer) (*models.Review, error) {
	review, err := s.loadOwn(ctx, userID, reviewID)
	if err != nil {
		return nil, err
	}

	assignment, err := s.peerAssignment(ctx, review)
	if err != nil {
		return nil, err
	}

	if review.Status != models.ReviewStatusDraft {
		// the review was stored by an earlier submit that failed to complete the assignment
		if assignment != nil && assignmentOpen(assignment) {
			if err := s.completeAssignment(ctx, assignment.ID, review.ID); err != nil {
				return nil, err
			}
			return review, nil
		}
		return nil, validationf("review %s has already been submitted", reviewID)
	}
	if assignment != nil && assignment.Status == models.AssignmentStatusDeclined {
		return nil, validationf("assignment %s was declined", assignment.ID)
	}

	questionnaire, err := s.loadQuestionnaire(ctx, review.QuestionnaireID)
	if err != nil {
		return nil, err
	}

	cleaned, err := matchAnswers(questionnaire, answers)
	if err != nil {
		return nil, err
	}
	for _, a := range cleaned {
		if strings.TrimSpace(a.AnswerText) == "" {
			return nil, validationf("Incomplete review: question %s has no answer", a.QuestionID)
		}
	}

	now := time.Now().UTC()
	review.Answers = cleaned
	review.Status = models.ReviewStatusSubmitted
	review.SubmittedAt = &now

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to submit review: %w", err)
	}

	if assignment != nil {
		if err := s.completeAssignment(ctx, assignment.ID, review.ID); err != nil {
			return nil, err
		}
	}
	return review, nil
}

// peerAssignment loads the assignment a peer review was written for. Self
// reviews and reviews whose assignment was deleted yield nil.
func (s *ReviewService) peerAssignment(ctx context.Context, review *models.Review) (*models.PeerReviewAssignment, error) {
	if review.Type != models.ReviewTypePeer || review.AssignmentID == nil {
		return nil, nil
	}
	assignment, err := s.assignments.GetByID(ctx, *review.AssignmentID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment: %w", err)
	}
	return assignment, nil
}

func (s *ReviewService) completeAssignment(ctx context.Context, assignmentID, reviewID string) error {
	if err := s.assignments.UpdateStatus(ctx, assignmentID, models.AssignmentStatusCompleted, &reviewID); err != nil {
		return fmt.Errorf("failed to complete assignment: %w", err)
	}
	return nil
}

func assignmentOpen(a *models.PeerReviewAssignment) bool {
	return a.Status == models.AssignmentStatusPending || a.Status == models.AssignmentStatusInProgress
}

// GetReview returns one of the user's reviews with its questionnaire
func (s *ReviewService) GetReview(ctx context.Context, userID, reviewID string) (*models.ReviewDetail, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.AuthorID != userID {
		return nil, ErrForbidden
	}

	questionnaire, err := s.questionnaires.GetByID(ctx, review.QuestionnaireID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questionnaire: %w", err)
	}
	slices.SortStableFunc(questionnaire.Questions, func(a, b models.Question) int {
		return a.Order - b.Order
	})

	return &models.ReviewDetail{Review: *review, Questionnaire: questionnaire}, nil
}

// GetMyReviews lists the reviews the user has written or started
func (s *ReviewService) GetMyReviews(ctx context.Context, userID string) ([]models.Review, error) {
	reviews, err := s.reviews.GetByAuthor(ctx, userID)
	reviews, err = degrade("get reviews by author", reviews, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}
	return reviews, nil
}

func (s *ReviewService) loadOwn(ctx context.Context, userID, reviewID string) (*models.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.AuthorID != userID {
		return nil, ErrForbidden
	}
	return review, nil
}

func (s *ReviewService) loadOwnDraft(ctx context.Context, userID, reviewID string) (*models.Review, *models.QuestionnaireVersion, error) {
	review, err := s.loadOwn(ctx, userID, reviewID)
	if err != nil {
		return nil, nil, err
	}
	if review.Status != models.ReviewStatusDraft {
		return nil, nil, validationf("review %s has already been submitted", reviewID)
	}

	questionnaire, err := s.loadQuestionnaire(ctx, review.QuestionnaireID)
	if err != nil {
		return nil, nil, err
	}
	return review, questionnaire, nil
}

func (s *ReviewService) loadQuestionnaire(ctx context.Context, id string) (*models.QuestionnaireVersion, error) {
	questionnaire, err := s.questionnaires.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, validationf("questionnaire %s does not exist", id)
		}
		return nil, fmt.Errorf("failed to load questionnaire: %w", err)
	}
	return questionnaire, nil
}

// matchAnswers orders answers by question and fills unanswered questions
// with empty text. Answers to unknown or repeated questions are rejected.
func matchAnswers(q *models.QuestionnaireVersion, answers []models.Answer) ([]models.Answer, error) {
	known := make(map[string]struct{}, len(q.Questions))
	for _, question := range q.Questions {
		known[question.ID] = struct{}{}
	}

	byID := make(map[string]string, len(answers))
	for _, a := range answers {
		if _, ok := known[a.QuestionID]; !ok {
			return nil, validationf("question %s is not part of questionnaire %s", a.QuestionID, q.ID)
		}
		if _, dup := byID[a.QuestionID]; dup {
			return nil, validationf("question %s answered more than once", a.QuestionID)
		}
		byID[a.QuestionID] = a.AnswerText
	}

	questions := slices.Clone(q.Questions)
	slices.SortStableFunc(questions, func(a, b models.Question) int {
		return a.Order - b.Order
	})

	out := make([]models.Answer, 0, len(questions))
	for _, question := range questions {
		out = append(out, models.Answer{QuestionID: question.ID, AnswerText: byID[question.ID]})
	}
	return out, nil
}
