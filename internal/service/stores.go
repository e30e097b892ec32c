package service

import (
	"context"

	"review-central/internal/models"
)

// UserStore is the persistence surface the services need for staff records
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetAll(ctx context.Context) ([]models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.User, error)
	Delete(ctx context.Context, id string) error
}

// QuestionnaireStore persists questionnaire versions
type QuestionnaireStore interface {
	Create(ctx context.Context, q *models.QuestionnaireVersion) error
	SaveNewVersion(ctx context.Context, previousID string, q *models.QuestionnaireVersion) error
	GetByID(ctx context.Context, id string) (*models.QuestionnaireVersion, error)
	GetAll(ctx context.Context) ([]models.QuestionnaireVersion, error)
	GetActiveByType(ctx context.Context, qType models.ReviewType) ([]models.QuestionnaireVersion, error)
	GetVersions(ctx context.Context, templateID string) ([]models.QuestionnaireVersion, error)
	DeactivateTemplate(ctx context.Context, templateID string) (int64, error)
}

// ReviewCycleStore persists review cycles
type ReviewCycleStore interface {
	Upsert(ctx context.Context, c *models.ReviewCycle) error
	GetByID(ctx context.Context, id string) (*models.ReviewCycle, error)
	GetAll(ctx context.Context) ([]models.ReviewCycle, error)
	GetByStatus(ctx context.Context, status models.CycleStatus) ([]models.ReviewCycle, error)
	Delete(ctx context.Context, id string) error
}

// AssignmentStore persists peer review assignments
type AssignmentStore interface {
	Upsert(ctx context.Context, a *models.PeerReviewAssignment) error
	UpdateStatus(ctx context.Context, id string, status models.AssignmentStatus, reviewID *string) error
	GetByID(ctx context.Context, id string) (*models.PeerReviewAssignment, error)
	GetByCycle(ctx context.Context, cycleID string) ([]models.PeerReviewAssignment, error)
	GetByReviewer(ctx context.Context, reviewerID string) ([]models.PeerReviewAssignment, error)
	Delete(ctx context.Context, id string) error
}

// ReviewStore persists written reviews
type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id string) (*models.Review, error)
	GetSelfReview(ctx context.Context, authorID, cycleID string) (*models.Review, error)
	GetByAssignment(ctx context.Context, assignmentID string) (*models.Review, error)
	GetByAuthor(ctx context.Context, authorID string) ([]models.Review, error)
	GetByCycle(ctx context.Context, cycleID string) ([]models.Review, error)
}

// AuditStore persists audit log entries
type AuditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
	GetAll(ctx context.Context, limit, offset int) ([]models.AuditLog, error)
	Count(ctx context.Context) (int, error)
}
