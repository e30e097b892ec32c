package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"review-central/internal/auth"
	"review-central/internal/config"
	"review-central/internal/middleware"
	"review-central/internal/models"
	"review-central/internal/service"
)

const oauthStateTTL = 10 * time.Minute

// IdentityProvider is the enterprise sign-in used when AUTH_PROVIDER=azure-ad
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.Identity, error)
}

// AuthHandler handles sign-in requests
type AuthHandler struct {
	cfg         *config.AuthConfig
	frontendURL string
	secure      bool
	users       *service.UserService
	tokens      *auth.Service
	idp         IdentityProvider
	auditMw     *middleware.AuditMiddleware
}

// NewAuthHandler creates a new auth handler. idp may be nil when the stub
// provider is configured.
func NewAuthHandler(
	cfg *config.Config,
	users *service.UserService,
	tokens *auth.Service,
	idp IdentityProvider,
	auditMw *middleware.AuditMiddleware,
) *AuthHandler {
	return &AuthHandler{
		cfg:         &cfg.Auth,
		frontendURL: cfg.App.FrontendURL,
		secure:      cfg.App.Env == "production",
		users:       users,
		tokens:      tokens,
		idp:         idp,
		auditMw:     auditMw,
	}
}

// LoginResponse is returned after a successful sign-in
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// Providers reports the configured identity provider
// @Summary Get sign-in provider
// @Description Returns which sign-in flow the frontend should offer
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /auth/providers [get]
func (h *AuthHandler) Providers(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"provider": h.cfg.Provider})
}

// StubLogin signs in the configured development user
// @Summary Development sign-in
// @Description Signs in the stub user, creating it in the directory if absent. Only available with AUTH_PROVIDER=stub.
// @Tags Auth
// @Produce json
// @Success 200 {object} LoginResponse
// @Failure 404 {object} map[string]string "Stub sign-in disabled"
// @Router /auth/stub/login [post]
func (h *AuthHandler) StubLogin(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Provider != "stub" {
		respondWithError(w, http.StatusNotFound, "Stub sign-in is disabled")
		return
	}

	user, err := h.users.EnsureUser(r.Context(), service.SaveUserInput{
		ID:    h.cfg.StubUserID,
		Name:  h.cfg.StubUserName,
		Email: h.cfg.StubUserEmail,
		Role:  models.Role(h.cfg.StubUserRole),
	})
	if err != nil {
		respondWithServiceError(w, r, "stub login", err)
		return
	}

	h.issueToken(w, r, user)
}

func (h *AuthHandler) issueToken(w http.ResponseWriter, r *http.Request, user *models.User) {
	token, expiresAt, err := h.tokens.GenerateToken(user)
	if err != nil {
		slog.Error("Failed to sign session token", "user_id", user.ID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.auditMw.LogAction(r.WithContext(middleware.WithUser(r.Context(), user.ID, user.Email, user.Role)),
		AuditActionLogin, "users/"+user.ID, "Signed in with "+h.cfg.Provider)

	respondWithJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt, User: user})
}

// AzureLogin starts the Azure AD authorization code flow
// @Summary Start Azure AD sign-in
// @Tags Auth
// @Success 302 "Redirect to Microsoft sign-in"
// @Failure 404 {object} map[string]string "Azure AD sign-in disabled"
// @Router /auth/azure/login [get]
func (h *AuthHandler) AzureLogin(w http.ResponseWriter, r *http.Request) {
	if h.idp == nil {
		respondWithError(w, http.StatusNotFound, "Azure AD sign-in is disabled")
		return
	}

	state, err := auth.GenerateRandomToken(32)
	if err != nil {
		slog.Error("Failed to generate OAuth state", "error", err)
		respondWithError(w, http.StatusInternalServerError, ErrMsgInternal)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     AuthAPIBasePath + "/azure",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.idp.AuthCodeURL(state), http.StatusFound)
}

// AzureCallback completes the Azure AD flow and hands the session token to the frontend
// @Summary Azure AD callback
// @Tags Auth
// @Param code query string true "Authorization code"
// @Param state query string true "OAuth state"
// @Success 302 "Redirect to the frontend with the session token and the Azure access token in the URL fragment"
// @Failure 403 {object} map[string]string "User is not registered in the directory"
// @Router /auth/azure/callback [get]
func (h *AuthHandler) AzureCallback(w http.ResponseWriter, r *http.Request) {
	if h.idp == nil {
		respondWithError(w, http.StatusNotFound, "Azure AD sign-in is disabled")
		return
	}

	query := r.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		slog.Warn("Azure AD returned an error", "error", providerErr, "description", query.Get("error_description"))
		h.auditMw.LogAction(r, AuditActionOAuthError, "auth/azure", providerErr)
		h.redirectWithError(w, r, "provider_error")
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	state := query.Get("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(state), []byte(stateCookie.Value)) != 1 {
		slog.Warn("OAuth callback failed: state mismatch")
		h.redirectWithError(w, r, "invalid_state")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Path:     AuthAPIBasePath + "/azure",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
	})

	code := query.Get("code")
	if code == "" {
		h.redirectWithError(w, r, "no_code")
		return
	}

	identity, err := h.idp.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("OAuth callback failed: code exchange failed", "error", err)
		h.auditMw.LogAction(r, AuditActionOAuthError, "auth/azure", err.Error())
		h.redirectWithError(w, r, "token_exchange_failed")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), identity.Email)
	if errors.Is(err, service.ErrNotFound) {
		h.auditMw.LogAction(r, AuditActionLoginDenied, "auth/azure", "No directory entry for "+identity.Email)
		respondWithError(w, http.StatusForbidden, ErrMsgUserNotRegistered)
		return
	}
	if err != nil {
		respondWithServiceError(w, r, "azure callback", err)
		return
	}

	token, expiresAt, err := h.tokens.GenerateToken(user)
	if err != nil {
		slog.Error("Failed to sign session token", "user_id", user.ID, "error", err)
		h.redirectWithError(w, r, "session_failed")
		return
	}
	h.auditMw.LogAction(r.WithContext(middleware.WithUser(r.Context(), user.ID, user.Email, user.Role)),
		AuditActionLogin, "users/"+user.ID, "Signed in with azure-ad")

	fragment := url.Values{}
	fragment.Set("token", token)
	fragment.Set("expiresAt", expiresAt.UTC().Format(time.RFC3339))
	if identity.AccessToken != "" {
		fragment.Set("providerToken", identity.AccessToken)
	}
	http.Redirect(w, r, fmt.Sprintf("%s/auth/callback#%s", h.frontendURL, fragment.Encode()), http.StatusFound)
}

func (h *AuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, fmt.Sprintf("%s/login?error=%s", h.frontendURL, url.QueryEscape(code)), http.StatusFound)
}

// Me returns the signed-in user
// @Summary Get current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "User not found"
// @Router /me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, r, "get current user", err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}
