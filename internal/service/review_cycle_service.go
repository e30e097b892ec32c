package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"review-central/internal/models"
	"review-central/pkg/validator"
)

// SaveReviewCycleInput creates (ID empty) or replaces a review cycle
type SaveReviewCycleInput struct {
	ID             string             `json:"id,omitempty"`
	Name           string             `json:"name" validate:"required,max=255"`
	StartDate      time.Time          `json:"startDate" validate:"required"`
	EndDate        time.Time          `json:"endDate" validate:"required"`
	ParticipantIDs []string           `json:"participantIds"`
	Status         models.CycleStatus `json:"status" validate:"required,oneof=draft active closed"`
}

// ReviewCycleService manages review cycles
type ReviewCycleService struct {
	cycles ReviewCycleStore
}

// NewReviewCycleService creates a new review cycle service
func NewReviewCycleService(cycles ReviewCycleStore) *ReviewCycleService {
	return &ReviewCycleService{cycles: cycles}
}

// SaveReviewCycle validates and upserts a cycle. Participants are de-duplicated.
func (s *ReviewCycleService) SaveReviewCycle(ctx context.Context, input SaveReviewCycleInput) (*models.ReviewCycle, error) {
	input.Name = validator.SanitizeString(input.Name)
	if err := validate(&input); err != nil {
		return nil, err
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, validationf("endDate must not be before startDate")
	}

	cycle := &models.ReviewCycle{
		ID:             input.ID,
		Name:           input.Name,
		StartDate:      input.StartDate.UTC(),
		EndDate:        input.EndDate.UTC(),
		ParticipantIDs: dedupe(input.ParticipantIDs),
		Status:         input.Status,
	}
	if cycle.ID == "" {
		cycle.ID = uuid.NewString()
	}

	if err := s.cycles.Upsert(ctx, cycle); err != nil {
		return nil, fmt.Errorf("failed to save review cycle: %w", err)
	}
	return cycle, nil
}

// GetReviewCycles returns every cycle, latest start first
func (s *ReviewCycleService) GetReviewCycles(ctx context.Context) ([]models.ReviewCycle, error) {
	cycles, err := s.cycles.GetAll(ctx)
	cycles, err = degrade("get review cycles", cycles, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get review cycles: %w", err)
	}
	return cycles, nil
}

// GetActiveReviewCycles returns the cycles in status active, latest start first
func (s *ReviewCycleService) GetActiveReviewCycles(ctx context.Context) ([]models.ReviewCycle, error) {
	cycles, err := s.cycles.GetByStatus(ctx, models.CycleStatusActive)
	cycles, err = degrade("get active review cycles", cycles, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get active review cycles: %w", err)
	}
	return cycles, nil
}

// GetReviewCycle returns one cycle
func (s *ReviewCycleService) GetReviewCycle(ctx context.Context, id string) (*models.ReviewCycle, error) {
	return s.cycles.GetByID(ctx, id)
}

// DeleteReviewCycle removes a cycle
func (s *ReviewCycleService) DeleteReviewCycle(ctx context.Context, id string) error {
	return s.cycles.Delete(ctx, id)
}
