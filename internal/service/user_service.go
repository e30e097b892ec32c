package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"review-central/internal/models"
	"review-central/internal/repository"
	"review-central/pkg/validator"
)

const defaultAvatarURL = "https://placehold.co/100x100.png?text="

// SaveUserInput is the create-or-update payload for a staff record
type SaveUserInput struct {
	ID        string      `json:"id,omitempty"`
	Name      string      `json:"name" validate:"required,max=255"`
	Email     string      `json:"email" validate:"required,email"`
	Role      models.Role `json:"role" validate:"required,oneof=employee team_leader admin"`
	AvatarURL string      `json:"avatarUrl,omitempty"`
}

// UserService manages the staff directory
type UserService struct {
	users UserStore
}

// NewUserService creates a new user service
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// GetUsers returns every user ordered by name. A missing table yields an empty list.
func (s *UserService) GetUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.GetAll(ctx)
	users, err = degrade("get users", users, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	sortByName(users, func(u models.User) string { return u.Name })
	return users, nil
}

// GetUser returns one user
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// SaveUser creates a user when input.ID is empty and updates it otherwise.
// Emails are stored lower-case and must be unique ignoring case.
func (s *UserService) SaveUser(ctx context.Context, input SaveUserInput) (*models.User, error) {
	input.Name = validator.SanitizeString(input.Name)
	input.Email = validator.SanitizeEmail(input.Email)
	input.AvatarURL = strings.TrimSpace(input.AvatarURL)
	if err := validate(&input); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	if existing != nil && existing.ID != input.ID {
		return nil, ErrDuplicateEmail
	}

	if input.ID != "" {
		return s.update(ctx, input)
	}
	return s.create(ctx, uuid.NewString(), input)
}

func (s *UserService) create(ctx context.Context, id string, input SaveUserInput) (*models.User, error) {
	user := &models.User{
		ID:        id,
		Name:      input.Name,
		Email:     input.Email,
		Role:      input.Role,
		AvatarURL: input.AvatarURL,
	}
	if user.AvatarURL == "" {
		user.AvatarURL = defaultAvatarURL + url.QueryEscape(initials(user.Name))
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	slog.Info("User created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *UserService) update(ctx context.Context, input SaveUserInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	user.Name = input.Name
	user.Email = input.Email
	user.Role = input.Role
	if input.AvatarURL != "" {
		user.AvatarURL = input.AvatarURL
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	return user, nil
}

// DeleteUser removes a user
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// EnsureUser returns the user with the given email, creating it when absent.
// A non-empty input.ID becomes the id of the created user. Used for
// development sign-in and seeding.
func (s *UserService) EnsureUser(ctx context.Context, input SaveUserInput) (*models.User, error) {
	input.Name = validator.SanitizeString(input.Name)
	input.Email = validator.SanitizeEmail(input.Email)
	if err := validate(&input); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, input.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	id := input.ID
	if id == "" {
		id = uuid.NewString()
	}
	return s.create(ctx, id, input)
}

// GetByEmail looks a user up ignoring case
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.users.GetByEmail(ctx, email)
}
