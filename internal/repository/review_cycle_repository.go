package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"review-central/internal/models"
)

const reviewCycleColumns = `id, name, start_date, end_date, participant_ids, status, created_at, updated_at`

// ReviewCycleRepository handles review cycle database operations
type ReviewCycleRepository struct {
	db *sql.DB
}

// NewReviewCycleRepository creates a new review cycle repository
func NewReviewCycleRepository(db *sql.DB) *ReviewCycleRepository {
	return &ReviewCycleRepository{db: db}
}

func scanReviewCycle(row rowScanner) (*models.ReviewCycle, error) {
	c := &models.ReviewCycle{}
	var participants pq.StringArray
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.StartDate,
		&c.EndDate,
		&participants,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ParticipantIDs = []string(participants)
	if c.ParticipantIDs == nil {
		c.ParticipantIDs = []string{}
	}
	return c, nil
}

// Upsert inserts the cycle or replaces the stored one with the same ID
func (r *ReviewCycleRepository) Upsert(ctx context.Context, c *models.ReviewCycle) error {
	query := `
		INSERT INTO review_cycles (id, name, start_date, end_date, participant_ids, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			participant_ids = EXCLUDED.participant_ids,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		c.ID,
		c.Name,
		c.StartDate,
		c.EndDate,
		pq.Array(c.ParticipantIDs),
		c.Status,
		time.Now().UTC(),
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save review cycle: %w", classify(err))
	}
	return nil
}

// GetByID retrieves a review cycle by ID
func (r *ReviewCycleRepository) GetByID(ctx context.Context, id string) (*models.ReviewCycle, error) {
	query := `SELECT ` + reviewCycleColumns + ` FROM review_cycles WHERE id = $1`

	c, err := scanReviewCycle(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get review cycle: %w", classify(err))
	}
	return c, nil
}

// GetAll retrieves every cycle, latest start date first
func (r *ReviewCycleRepository) GetAll(ctx context.Context) ([]models.ReviewCycle, error) {
	return r.list(ctx, `SELECT `+reviewCycleColumns+` FROM review_cycles ORDER BY start_date DESC`)
}

// GetByStatus retrieves the cycles in the given status, latest start date first
func (r *ReviewCycleRepository) GetByStatus(ctx context.Context, status models.CycleStatus) ([]models.ReviewCycle, error) {
	return r.list(ctx, `SELECT `+reviewCycleColumns+` FROM review_cycles WHERE status = $1 ORDER BY start_date DESC`, status)
}

func (r *ReviewCycleRepository) list(ctx context.Context, query string, args ...any) ([]models.ReviewCycle, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list review cycles: %w", classify(err))
	}
	defer closeRows(rows)

	var cycles []models.ReviewCycle
	for rows.Next() {
		c, err := scanReviewCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review cycle: %w", err)
		}
		cycles = append(cycles, *c)
	}

	return cycles, rows.Err()
}

// Delete removes a review cycle
func (r *ReviewCycleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM review_cycles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review cycle: %w", classify(err))
	}
	return requireAffected(result)
}
