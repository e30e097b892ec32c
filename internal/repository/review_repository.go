package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"review-central/internal/models"
	"review-central/internal/securestore"
)

const reviewColumns = `id, type, review_cycle_id, questionnaire_id, author_id, reviewee_id,
	assignment_id, status, answers, submitted_at, created_at, updated_at`

// ReviewRepository handles review database operations. Answers pass
// through the sealer on every write and read.
type ReviewRepository struct {
	db     *sql.DB
	sealer securestore.Sealer
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *sql.DB, sealer securestore.Sealer) *ReviewRepository {
	return &ReviewRepository{db: db, sealer: sealer}
}

func (r *ReviewRepository) seal(ctx context.Context, review *models.Review) (string, error) {
	answers := review.Answers
	if answers == nil {
		answers = []models.Answer{}
	}
	plain, err := json.Marshal(answers)
	if err != nil {
		return "", fmt.Errorf("failed to encode answers: %w", err)
	}
	return r.sealer.Seal(ctx, review.ID, plain)
}

func (r *ReviewRepository) scan(ctx context.Context, row rowScanner) (*models.Review, error) {
	review := &models.Review{}
	var assignmentID sql.NullString
	var sealed string
	err := row.Scan(
		&review.ID,
		&review.Type,
		&review.ReviewCycleID,
		&review.QuestionnaireID,
		&review.AuthorID,
		&review.RevieweeID,
		&assignmentID,
		&review.Status,
		&sealed,
		&review.SubmittedAt,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if assignmentID.Valid {
		review.AssignmentID = &assignmentID.String
	}

	plain, err := r.sealer.Open(ctx, review.ID, sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to open answers of review %s: %w", review.ID, err)
	}
	review.Answers = []models.Answer{}
	if len(plain) > 0 {
		if err := json.Unmarshal(plain, &review.Answers); err != nil {
			return nil, fmt.Errorf("failed to decode answers of review %s: %w", review.ID, err)
		}
	}
	return review, nil
}

// Create inserts a new review
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	sealed, err := r.seal(ctx, review)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO reviews (
			id, type, review_cycle_id, questionnaire_id, author_id, reviewee_id,
			assignment_id, status, answers, submitted_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
	`

	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query,
		review.ID,
		review.Type,
		review.ReviewCycleID,
		review.QuestionnaireID,
		review.AuthorID,
		review.RevieweeID,
		review.AssignmentID,
		review.Status,
		sealed,
		review.SubmittedAt,
		now,
	); err != nil {
		return fmt.Errorf("failed to create review: %w", classify(err))
	}

	review.CreatedAt = now
	review.UpdatedAt = now
	return nil
}

// Update stores new answers, status and submission time of a review
func (r *ReviewRepository) Update(ctx context.Context, review *models.Review) error {
	sealed, err := r.seal(ctx, review)
	if err != nil {
		return err
	}

	query := `
		UPDATE reviews
		SET answers = $1, status = $2, submitted_at = $3, updated_at = $4
		WHERE id = $5
	`

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query, sealed, review.Status, review.SubmittedAt, now, review.ID)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", classify(err))
	}
	if err := requireAffected(result); err != nil {
		return err
	}

	review.UpdatedAt = now
	return nil
}

// GetByID retrieves a review by ID
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	review, err := r.scan(ctx, r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", classify(err))
	}
	return review, nil
}

// GetSelfReview retrieves the self review of an author in a cycle
func (r *ReviewRepository) GetSelfReview(ctx context.Context, authorID, cycleID string) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE type = 'self' AND author_id = $1 AND review_cycle_id = $2`

	review, err := r.scan(ctx, r.db.QueryRowContext(ctx, query, authorID, cycleID))
	if err != nil {
		return nil, fmt.Errorf("failed to get self review: %w", classify(err))
	}
	return review, nil
}

// GetByAssignment retrieves the peer review written for an assignment
func (r *ReviewRepository) GetByAssignment(ctx context.Context, assignmentID string) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE assignment_id = $1`

	review, err := r.scan(ctx, r.db.QueryRowContext(ctx, query, assignmentID))
	if err != nil {
		return nil, fmt.Errorf("failed to get review by assignment: %w", classify(err))
	}
	return review, nil
}

// GetByAuthor retrieves every review a user wrote, newest first
func (r *ReviewRepository) GetByAuthor(ctx context.Context, authorID string) ([]models.Review, error) {
	return r.list(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE author_id = $1 ORDER BY updated_at DESC`,
		authorID,
	)
}

// GetByCycle retrieves every review of a cycle
func (r *ReviewRepository) GetByCycle(ctx context.Context, cycleID string) ([]models.Review, error) {
	return r.list(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE review_cycle_id = $1 ORDER BY created_at`,
		cycleID,
	)
}

func (r *ReviewRepository) list(ctx context.Context, query string, args ...any) ([]models.Review, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", classify(err))
	}
	defer closeRows(rows)

	var reviews []models.Review
	for rows.Next() {
		review, err := r.scan(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, *review)
	}

	return reviews, rows.Err()
}
