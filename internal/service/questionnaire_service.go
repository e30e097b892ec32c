package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"review-central/internal/models"
	"review-central/pkg/validator"
)

// SaveQuestionnaireInput creates a new template (ID and TemplateID empty) or
// a new version of an existing one (both set).
type SaveQuestionnaireInput struct {
	ID          string            `json:"id,omitempty"`
	TemplateID  string            `json:"templateId,omitempty"`
	Name        string            `json:"name" validate:"required,max=255"`
	Description string            `json:"description,omitempty"`
	Type        models.ReviewType `json:"type" validate:"required,oneof=self peer"`
	Questions   []models.Question `json:"questions" validate:"min=1"`
}

// QuestionnaireService manages questionnaire templates and their versions
type QuestionnaireService struct {
	questionnaires QuestionnaireStore
}

// NewQuestionnaireService creates a new questionnaire service
func NewQuestionnaireService(questionnaires QuestionnaireStore) *QuestionnaireService {
	return &QuestionnaireService{questionnaires: questionnaires}
}

// SaveQuestionnaire never edits a stored version. Saving an existing version
// archives every active version of its template and stores the content as
// the next version number.
func (s *QuestionnaireService) SaveQuestionnaire(ctx context.Context, input SaveQuestionnaireInput) (*models.QuestionnaireVersion, error) {
	input.Name = validator.SanitizeString(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	if err := validate(&input); err != nil {
		return nil, err
	}
	if (input.ID == "") != (input.TemplateID == "") {
		return nil, validationf("id and templateId must be provided together")
	}

	questions, err := normalizeQuestions(input.Questions)
	if err != nil {
		return nil, err
	}

	q := &models.QuestionnaireVersion{
		ID:          uuid.NewString(),
		TemplateID:  input.TemplateID,
		Name:        input.Name,
		Description: input.Description,
		Type:        input.Type,
		Questions:   questions,
	}

	if input.ID == "" {
		q.TemplateID = q.ID
		if err := s.questionnaires.Create(ctx, q); err != nil {
			return nil, fmt.Errorf("failed to create questionnaire: %w", err)
		}
		slog.Info("Questionnaire template created", "template_id", q.TemplateID)
		return q, nil
	}

	if err := s.questionnaires.SaveNewVersion(ctx, input.ID, q); err != nil {
		return nil, fmt.Errorf("failed to save questionnaire version: %w", err)
	}
	slog.Info("Questionnaire version created",
		"template_id", q.TemplateID,
		"version", q.Version,
		"previous_id", input.ID,
	)
	return q, nil
}

// normalizeQuestions trims question texts, fills missing ids and replaces
// missing order values with the 1-based position
func normalizeQuestions(in []models.Question) ([]models.Question, error) {
	out := make([]models.Question, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for i, q := range in {
		q.Text = strings.TrimSpace(q.Text)
		if q.Text == "" {
			return nil, validationf("question %d has no text", i+1)
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if _, dup := seen[q.ID]; dup {
			return nil, validationf("question id %q is used twice", q.ID)
		}
		seen[q.ID] = struct{}{}
		if q.Order <= 0 {
			q.Order = i + 1
		}
		out = append(out, q)
	}
	return out, nil
}

// GetLatestQuestionnaires returns the highest version of every template,
// ordered by name. Templates whose versions are all inactive are included.
func (s *QuestionnaireService) GetLatestQuestionnaires(ctx context.Context) ([]models.QuestionnaireVersion, error) {
	all, err := s.questionnaires.GetAll(ctx)
	all, err = degrade("get latest questionnaires", all, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get questionnaires: %w", err)
	}

	latest := make(map[string]models.QuestionnaireVersion)
	for _, q := range all {
		if cur, ok := latest[q.TemplateID]; !ok || q.Version > cur.Version {
			latest[q.TemplateID] = q
		}
	}

	result := make([]models.QuestionnaireVersion, 0, len(latest))
	for _, q := range latest {
		result = append(result, q)
	}
	sortByName(result, func(q models.QuestionnaireVersion) string { return q.Name })
	return result, nil
}

// GetActiveQuestionnaires returns the active versions of one review type
func (s *QuestionnaireService) GetActiveQuestionnaires(ctx context.Context, qType models.ReviewType) ([]models.QuestionnaireVersion, error) {
	if !qType.Valid() {
		return nil, validationf("type must be one of: self, peer")
	}
	active, err := s.questionnaires.GetActiveByType(ctx, qType)
	active, err = degrade("get active questionnaires", active, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get active questionnaires: %w", err)
	}
	sortByName(active, func(q models.QuestionnaireVersion) string { return q.Name })
	return active, nil
}

// GetQuestionnaire returns one version
func (s *QuestionnaireService) GetQuestionnaire(ctx context.Context, id string) (*models.QuestionnaireVersion, error) {
	return s.questionnaires.GetByID(ctx, id)
}

// GetTemplateVersions returns the version history of a template, newest first
func (s *QuestionnaireService) GetTemplateVersions(ctx context.Context, templateID string) ([]models.QuestionnaireVersion, error) {
	versions, err := s.questionnaires.GetVersions(ctx, templateID)
	versions, err = degrade("get template versions", versions, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get template versions: %w", err)
	}
	return versions, nil
}

// DeactivateTemplate marks every version of a template inactive. Unknown
// templates are a no-op.
func (s *QuestionnaireService) DeactivateTemplate(ctx context.Context, templateID string) error {
	if strings.TrimSpace(templateID) == "" {
		return validationf("templateId is required")
	}
	n, err := s.questionnaires.DeactivateTemplate(ctx, templateID)
	if err != nil {
		return fmt.Errorf("failed to deactivate template: %w", err)
	}
	slog.Info("Questionnaire template deactivated", "template_id", templateID, "versions", n)
	return nil
}
