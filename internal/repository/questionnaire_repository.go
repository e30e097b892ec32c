package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"review-central/internal/models"
)

const questionnaireColumns = `id, template_id, version, name, COALESCE(description, ''), type, questions, is_active, created_at, updated_at`

// QuestionnaireRepository handles questionnaire version database operations
type QuestionnaireRepository struct {
	db *sql.DB
}

// NewQuestionnaireRepository creates a new questionnaire repository
func NewQuestionnaireRepository(db *sql.DB) *QuestionnaireRepository {
	return &QuestionnaireRepository{db: db}
}

func scanQuestionnaire(row rowScanner) (*models.QuestionnaireVersion, error) {
	q := &models.QuestionnaireVersion{}
	var questions []byte
	err := row.Scan(
		&q.ID,
		&q.TemplateID,
		&q.Version,
		&q.Name,
		&q.Description,
		&q.Type,
		&questions,
		&q.IsActive,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &q.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions of %s: %w", q.ID, err)
	}
	return q, nil
}

func (r *QuestionnaireRepository) list(ctx context.Context, query string, args ...any) ([]models.QuestionnaireVersion, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer closeRows(rows)

	var versions []models.QuestionnaireVersion
	for rows.Next() {
		q, err := scanQuestionnaire(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan questionnaire: %w", err)
		}
		versions = append(versions, *q)
	}

	return versions, rows.Err()
}

// Create stores the first version of a new template. The caller assigns
// ID and TemplateID; Version is forced to 1 and the version is active.
func (r *QuestionnaireRepository) Create(ctx context.Context, q *models.QuestionnaireVersion) error {
	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return fmt.Errorf("failed to encode questions: %w", err)
	}

	query := `
		INSERT INTO questionnaires (id, template_id, version, name, description, type, questions, is_active, created_at, updated_at)
		VALUES ($1, $2, 1, $3, $4, $5, $6, TRUE, $7, $8)
	`

	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query,
		q.ID,
		q.TemplateID,
		q.Name,
		q.Description,
		q.Type,
		questions,
		now,
		now,
	); err != nil {
		return fmt.Errorf("failed to create questionnaire: %w", classify(err))
	}

	q.Version = 1
	q.IsActive = true
	q.CreatedAt = now
	q.UpdatedAt = now
	return nil
}

// SaveNewVersion archives the active versions of q.TemplateID and inserts q
// as the next version in one transaction. previousID must name an existing
// version of the same template, otherwise ErrNotFound is returned and
// nothing is written. The template rows stay locked until commit so
// concurrent edits serialise.
func (r *QuestionnaireRepository) SaveNewVersion(ctx context.Context, previousID string, q *models.QuestionnaireVersion) error {
	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return fmt.Errorf("failed to encode questions: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	// Lock first, then read the version numbers in a fresh statement so rows
	// committed by an edit we waited on are visible.
	if _, err := tx.ExecContext(ctx,
		`SELECT id FROM questionnaires WHERE template_id = $1 FOR UPDATE`,
		q.TemplateID,
	); err != nil {
		return fmt.Errorf("failed to lock template versions: %w", classify(err))
	}

	var maxVersion, matches int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0), COUNT(*) FILTER (WHERE id = $2)
		 FROM questionnaires WHERE template_id = $1`,
		q.TemplateID, previousID,
	).Scan(&maxVersion, &matches)
	if err != nil {
		return fmt.Errorf("failed to read template versions: %w", err)
	}

	if matches == 0 {
		return ErrNotFound
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE questionnaires SET is_active = FALSE, updated_at = $1 WHERE template_id = $2 AND is_active`,
		now, q.TemplateID,
	); err != nil {
		return fmt.Errorf("failed to archive previous version: %w", err)
	}

	query := `
		INSERT INTO questionnaires (id, template_id, version, name, description, type, questions, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $9)
	`
	if _, err := tx.ExecContext(ctx, query,
		q.ID,
		q.TemplateID,
		maxVersion+1,
		q.Name,
		q.Description,
		q.Type,
		questions,
		now,
		now,
	); err != nil {
		return fmt.Errorf("failed to insert new version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit new version: %w", err)
	}

	q.Version = maxVersion + 1
	q.IsActive = true
	q.CreatedAt = now
	q.UpdatedAt = now
	return nil
}

// GetByID retrieves one questionnaire version
func (r *QuestionnaireRepository) GetByID(ctx context.Context, id string) (*models.QuestionnaireVersion, error) {
	query := `SELECT ` + questionnaireColumns + ` FROM questionnaires WHERE id = $1`

	q, err := scanQuestionnaire(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get questionnaire: %w", classify(err))
	}
	return q, nil
}

// GetAll retrieves every stored version of every template
func (r *QuestionnaireRepository) GetAll(ctx context.Context) ([]models.QuestionnaireVersion, error) {
	query := `SELECT ` + questionnaireColumns + ` FROM questionnaires ORDER BY template_id, version`

	versions, err := r.list(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list questionnaires: %w", err)
	}
	return versions, nil
}

// GetActiveByType retrieves the active versions of the given type
func (r *QuestionnaireRepository) GetActiveByType(ctx context.Context, qType models.ReviewType) ([]models.QuestionnaireVersion, error) {
	query := `SELECT ` + questionnaireColumns + ` FROM questionnaires WHERE is_active AND type = $1 ORDER BY name`

	versions, err := r.list(ctx, query, qType)
	if err != nil {
		return nil, fmt.Errorf("failed to list active questionnaires: %w", err)
	}
	return versions, nil
}

// GetVersions retrieves the history of a template, newest first
func (r *QuestionnaireRepository) GetVersions(ctx context.Context, templateID string) ([]models.QuestionnaireVersion, error) {
	query := `SELECT ` + questionnaireColumns + ` FROM questionnaires WHERE template_id = $1 ORDER BY version DESC`

	versions, err := r.list(ctx, query, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list template versions: %w", err)
	}
	return versions, nil
}

// DeactivateTemplate marks every version of the template inactive and
// returns the number of rows touched. Unknown templates are not an error.
func (r *QuestionnaireRepository) DeactivateTemplate(ctx context.Context, templateID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE questionnaires SET is_active = FALSE, updated_at = $1 WHERE template_id = $2 AND is_active`,
		time.Now().UTC(), templateID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate template: %w", classify(err))
	}
	return result.RowsAffected()
}
