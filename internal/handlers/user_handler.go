package handlers

import (
	"net/http"

	"review-central/internal/service"
)

// UserHandler handles staff directory administration
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// ListUsers returns all users ordered by name
// @Summary List users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.GetUsers(r.Context())
	if err != nil {
		respondWithServiceError(w, r, "list users", err)
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}

// GetUser returns one user
// @Summary Get user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} map[string]string "User not found"
// @Router /admin/users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, r, "get user", err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

// CreateUser adds a user to the directory
// @Summary Create user
// @Description Emails are stored lower-case and must be unique. A placeholder avatar is generated when none is given.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.SaveUserInput true "User"
// @Success 201 {object} models.User
// @Failure 400 {object} map[string]string "Validation failed"
// @Failure 409 {object} map[string]string "Email already in use"
// @Router /admin/users [post]
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input service.SaveUserInput
	if err := decodeJSON(r, w, &input); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}
	input.ID = ""

	user, err := h.users.SaveUser(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, r, "create user", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, user)
}

// UpdateUser replaces a user's directory entry
// @Summary Update user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body service.SaveUserInput true "User"
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]string "Validation failed"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 409 {object} map[string]string "Email already in use"
// @Router /admin/users/{id} [put]
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var input service.SaveUserInput
	if err := decodeJSON(r, w, &input); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}
	input.ID = r.PathValue("id")

	user, err := h.users.SaveUser(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, r, "update user", err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

// DeleteUser removes a user from the directory
// @Summary Delete user
// @Tags Users
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204
// @Failure 404 {object} map[string]string "User not found"
// @Router /admin/users/{id} [delete]
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		respondWithServiceError(w, r, "delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
