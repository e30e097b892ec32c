package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"review-central/internal/models"
)

// SaveAssignmentInput creates (ID empty) or replaces a peer review assignment.
// Display names and avatars are always taken from the user directory.
type SaveAssignmentInput struct {
	ID              string                  `json:"id,omitempty"`
	ReviewCycleID   string                  `json:"reviewCycleId" validate:"required"`
	RevieweeID      string                  `json:"revieweeId" validate:"required"`
	ReviewerID      string                  `json:"reviewerId" validate:"required"`
	QuestionnaireID string                  `json:"questionnaireId" validate:"required"`
	Status          models.AssignmentStatus `json:"status" validate:"required,oneof=pending in_progress completed declined"`
	DueDate         time.Time               `json:"dueDate" validate:"required"`
}

// AssignmentService manages reviewer/reviewee pairings
type AssignmentService struct {
	assignments AssignmentStore
	users       UserStore
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(assignments AssignmentStore, users UserStore) *AssignmentService {
	return &AssignmentService{assignments: assignments, users: users}
}

// SaveAssignment validates the pairing before touching the store, then
// snapshots reviewer and reviewee display data into the assignment.
// Status changes are not checked against a transition table.
func (s *AssignmentService) SaveAssignment(ctx context.Context, input SaveAssignmentInput) (*models.PeerReviewAssignment, error) {
	input.RevieweeID = strings.TrimSpace(input.RevieweeID)
	input.ReviewerID = strings.TrimSpace(input.ReviewerID)
	if err := validate(&input); err != nil {
		return nil, err
	}
	if input.RevieweeID == input.ReviewerID {
		return nil, ErrSelfAssignment
	}

	reviewee, err := s.lookupUser(ctx, "reviewee", input.RevieweeID)
	if err != nil {
		return nil, err
	}
	reviewer, err := s.lookupUser(ctx, "reviewer", input.ReviewerID)
	if err != nil {
		return nil, err
	}

	assignment := &models.PeerReviewAssignment{
		ID:                input.ID,
		ReviewCycleID:     input.ReviewCycleID,
		RevieweeID:        reviewee.ID,
		RevieweeName:      reviewee.Name,
		RevieweeAvatarURL: reviewee.AvatarURL,
		ReviewerID:        reviewer.ID,
		ReviewerName:      reviewer.Name,
		ReviewerAvatarURL: reviewer.AvatarURL,
		QuestionnaireID:   input.QuestionnaireID,
		Status:            input.Status,
		DueDate:           input.DueDate.UTC(),
	}
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}

	if err := s.assignments.Upsert(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to save assignment: %w", err)
	}
	return assignment, nil
}

func (s *AssignmentService) lookupUser(ctx context.Context, role, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, validationf("%s %s does not exist", role, id)
		}
		return nil, fmt.Errorf("failed to load %s: %w", role, err)
	}
	return user, nil
}

// GetAssignmentsByCycle lists the assignments of a cycle. An empty cycle id
// returns an empty list without querying; store errors are logged and
// degrade to an empty list.
func (s *AssignmentService) GetAssignmentsByCycle(ctx context.Context, cycleID string) []models.PeerReviewAssignment {
	if strings.TrimSpace(cycleID) == "" {
		return []models.PeerReviewAssignment{}
	}

	assignments, err := s.assignments.GetByCycle(ctx, cycleID)
	if err != nil {
		slog.Error("Failed to get assignments for cycle", "cycle_id", cycleID, "error", err)
		return []models.PeerReviewAssignment{}
	}
	if assignments == nil {
		return []models.PeerReviewAssignment{}
	}
	return assignments
}

// GetAssignmentsForReviewer lists what a user still has to write or wrote
func (s *AssignmentService) GetAssignmentsForReviewer(ctx context.Context, reviewerID string) ([]models.PeerReviewAssignment, error) {
	assignments, err := s.assignments.GetByReviewer(ctx, reviewerID)
	assignments, err = degrade("get reviewer assignments", assignments, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}
	return assignments, nil
}

// GetAssignment returns one assignment
func (s *AssignmentService) GetAssignment(ctx context.Context, id string) (*models.PeerReviewAssignment, error) {
	return s.assignments.GetByID(ctx, id)
}

// DeleteAssignment removes an assignment
func (s *AssignmentService) DeleteAssignment(ctx context.Context, id string) error {
	return s.assignments.Delete(ctx, id)
}
