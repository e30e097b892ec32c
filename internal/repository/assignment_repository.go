package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"review-central/internal/models"
)

const assignmentColumns = `id, review_cycle_id, reviewee_id, reviewee_name, reviewee_avatar_url,
	reviewer_id, reviewer_name, reviewer_avatar_url, questionnaire_id, status, due_date,
	review_id, created_at, updated_at`

// AssignmentRepository handles peer review assignment database operations
type AssignmentRepository struct {
	db *sql.DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func scanAssignment(row rowScanner) (*models.PeerReviewAssignment, error) {
	a := &models.PeerReviewAssignment{}
	var reviewID sql.NullString
	err := row.Scan(
		&a.ID,
		&a.ReviewCycleID,
		&a.RevieweeID,
		&a.RevieweeName,
		&a.RevieweeAvatarURL,
		&a.ReviewerID,
		&a.ReviewerName,
		&a.ReviewerAvatarURL,
		&a.QuestionnaireID,
		&a.Status,
		&a.DueDate,
		&reviewID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if reviewID.Valid {
		a.ReviewID = &reviewID.String
	}
	return a, nil
}

// Upsert inserts the assignment or replaces the stored one with the same ID
func (r *AssignmentRepository) Upsert(ctx context.Context, a *models.PeerReviewAssignment) error {
	query := `
		INSERT INTO peer_review_assignments (
			id, review_cycle_id, reviewee_id, reviewee_name, reviewee_avatar_url,
			reviewer_id, reviewer_name, reviewer_avatar_url, questionnaire_id,
			status, due_date, review_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		ON CONFLICT (id) DO UPDATE SET
			review_cycle_id = EXCLUDED.review_cycle_id,
			reviewee_id = EXCLUDED.reviewee_id,
			reviewee_name = EXCLUDED.reviewee_name,
			reviewee_avatar_url = EXCLUDED.reviewee_avatar_url,
			reviewer_id = EXCLUDED.reviewer_id,
			reviewer_name = EXCLUDED.reviewer_name,
			reviewer_avatar_url = EXCLUDED.reviewer_avatar_url,
			questionnaire_id = EXCLUDED.questionnaire_id,
			status = EXCLUDED.status,
			due_date = EXCLUDED.due_date,
			review_id = COALESCE(EXCLUDED.review_id, peer_review_assignments.review_id),
			updated_at = EXCLUDED.updated_at
		RETURNING review_id, created_at, updated_at
	`

	var reviewID sql.NullString
	err := r.db.QueryRowContext(ctx, query,
		a.ID,
		a.ReviewCycleID,
		a.RevieweeID,
		a.RevieweeName,
		a.RevieweeAvatarURL,
		a.ReviewerID,
		a.ReviewerName,
		a.ReviewerAvatarURL,
		a.QuestionnaireID,
		a.Status,
		a.DueDate,
		a.ReviewID,
		time.Now().UTC(),
	).Scan(&reviewID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save assignment: %w", classify(err))
	}
	if reviewID.Valid {
		a.ReviewID = &reviewID.String
	}
	return nil
}

// UpdateStatus sets the status and, when reviewID is non-nil, links the review
func (r *AssignmentRepository) UpdateStatus(ctx context.Context, id string, status models.AssignmentStatus, reviewID *string) error {
	query := `
		UPDATE peer_review_assignments
		SET status = $1, review_id = COALESCE($2, review_id), updated_at = $3
		WHERE id = $4
	`

	result, err := r.db.ExecContext(ctx, query, status, reviewID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update assignment status: %w", classify(err))
	}
	return requireAffected(result)
}

// GetByID retrieves an assignment by ID
func (r *AssignmentRepository) GetByID(ctx context.Context, id string) (*models.PeerReviewAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM peer_review_assignments WHERE id = $1`

	a, err := scanAssignment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", classify(err))
	}
	return a, nil
}

// GetByCycle retrieves all assignments of a review cycle
func (r *AssignmentRepository) GetByCycle(ctx context.Context, cycleID string) ([]models.PeerReviewAssignment, error) {
	return r.list(ctx,
		`SELECT `+assignmentColumns+` FROM peer_review_assignments WHERE review_cycle_id = $1 ORDER BY reviewee_name, reviewer_name`,
		cycleID,
	)
}

// GetByReviewer retrieves the assignments a user has to write
func (r *AssignmentRepository) GetByReviewer(ctx context.Context, reviewerID string) ([]models.PeerReviewAssignment, error) {
	return r.list(ctx,
		`SELECT `+assignmentColumns+` FROM peer_review_assignments WHERE reviewer_id = $1 ORDER BY due_date`,
		reviewerID,
	)
}

func (r *AssignmentRepository) list(ctx context.Context, query string, args ...any) ([]models.PeerReviewAssignment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", classify(err))
	}
	defer closeRows(rows)

	var assignments []models.PeerReviewAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, *a)
	}

	return assignments, rows.Err()
}

// Delete removes an assignment
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM peer_review_assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", classify(err))
	}
	return requireAffected(result)
}
