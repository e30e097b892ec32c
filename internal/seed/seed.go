// Package seed loads users and questionnaires from a YAML file into the
// directory. Running it twice does not duplicate anything.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"review-central/internal/models"
	"review-central/internal/service"
)

// File is the seed document
type File struct {
	Users          []User          `yaml:"users"`
	Questionnaires []Questionnaire `yaml:"questionnaires"`
}

// User is a directory entry, matched by email
type User struct {
	ID        string      `yaml:"id"`
	Name      string      `yaml:"name"`
	Email     string      `yaml:"email"`
	Role      models.Role `yaml:"role"`
	AvatarURL string      `yaml:"avatarUrl"`
}

// Questionnaire is a template, matched by name among the active ones of its type
type Questionnaire struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Type        models.ReviewType `yaml:"type"`
	Questions   []string          `yaml:"questions"`
}

// Result counts what a run changed
type Result struct {
	UsersCreated          int
	UsersUpdated          int
	QuestionnairesCreated int
	QuestionnairesSkipped int
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &f, nil
}

// LoadFile reads and parses a seed file from disk
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}

// Seeder applies seed documents through the services, so the same
// validation applies as for API writes
type Seeder struct {
	users          *service.UserService
	questionnaires *service.QuestionnaireService
}

// NewSeeder creates a new seeder
func NewSeeder(users *service.UserService, questionnaires *service.QuestionnaireService) *Seeder {
	return &Seeder{users: users, questionnaires: questionnaires}
}

// Apply upserts users by email and creates questionnaires that have no
// active template of the same name and type yet
func (s *Seeder) Apply(ctx context.Context, f *File) (*Result, error) {
	res := &Result{}

	for _, u := range f.Users {
		input := service.SaveUserInput{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Role:      u.Role,
			AvatarURL: u.AvatarURL,
		}

		existing, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(u.Email)))
		switch {
		case err == nil:
			input.ID = existing.ID
			if _, err := s.users.SaveUser(ctx, input); err != nil {
				return res, fmt.Errorf("user %s: %w", u.Email, err)
			}
			res.UsersUpdated++
		case errors.Is(err, service.ErrNotFound):
			if _, err := s.users.EnsureUser(ctx, input); err != nil {
				return res, fmt.Errorf("user %s: %w", u.Email, err)
			}
			res.UsersCreated++
		default:
			return res, fmt.Errorf("user %s: %w", u.Email, err)
		}
	}

	for _, q := range f.Questionnaires {
		exists, err := s.hasActive(ctx, q)
		if err != nil {
			return res, fmt.Errorf("questionnaire %q: %w", q.Name, err)
		}
		if exists {
			slog.Info("Questionnaire already present, skipping", "name", q.Name, "type", q.Type)
			res.QuestionnairesSkipped++
			continue
		}

		questions := make([]models.Question, 0, len(q.Questions))
		for i, text := range q.Questions {
			questions = append(questions, models.Question{Text: text, Order: i + 1})
		}
		if _, err := s.questionnaires.SaveQuestionnaire(ctx, service.SaveQuestionnaireInput{
			Name:        q.Name,
			Description: q.Description,
			Type:        q.Type,
			Questions:   questions,
		}); err != nil {
			return res, fmt.Errorf("questionnaire %q: %w", q.Name, err)
		}
		res.QuestionnairesCreated++
	}

	return res, nil
}

func (s *Seeder) hasActive(ctx context.Context, q Questionnaire) (bool, error) {
	active, err := s.questionnaires.GetActiveQuestionnaires(ctx, q.Type)
	if err != nil {
		return false, err
	}
	for _, existing := range active {
		if strings.EqualFold(existing.Name, strings.TrimSpace(q.Name)) {
			return true, nil
		}
	}
	return false, nil
}
