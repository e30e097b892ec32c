package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"review-central/internal/models"
	"review-central/internal/repository"
)

// UserLookup reads users from the directory
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// RBACMiddleware handles role-based access control. Roles are read from the
// directory on every request, so role changes apply without a new token.
type RBACMiddleware struct {
	users UserLookup
}

// NewRBACMiddleware creates a new RBAC middleware
func NewRBACMiddleware(users UserLookup) *RBACMiddleware {
	return &RBACMiddleware{users: users}
}

// RequireRole checks if the user has the required role
func (m *RBACMiddleware) RequireRole(role models.Role) func(http.Handler) http.Handler {
	return m.RequireAnyRole(role)
}

// RequireAnyRole checks if the user has any of the required roles
func (m *RBACMiddleware) RequireAnyRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r)
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "User not authenticated")
				return
			}

			user, err := m.users.GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					respondWithError(w, http.StatusForbidden, "User is not registered")
					return
				}
				slog.Error("Failed to load user role", "user_id", userID, "error", err)
				respondWithError(w, http.StatusInternalServerError, "Failed to get user roles")
				return
			}

			if !slices.Contains(roles, user.Role) {
				respondWithError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			ctx := WithUser(r.Context(), user.ID, user.Email, user.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
