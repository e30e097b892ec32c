package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"review-central/internal/config"
)

const clockSkew = time.Minute

// ErrMissingIDToken is returned when the token response carries no id_token
var ErrMissingIDToken = errors.New("token response has no id_token")

// Identity is the signed-in person as reported by the identity provider
type Identity struct {
	Subject     string
	Email       string
	Name        string
	AccessToken string
}

// azureClaims are the id_token claims read from Microsoft Entra ID
type azureClaims struct {
	OID               string `json:"oid"`
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
	Name              string `json:"name"`
	TenantID          string `json:"tid"`
	jwt.RegisteredClaims
}

// AzureProvider runs the OAuth2 authorization code flow against Azure AD
type AzureProvider struct {
	oauth    *oauth2.Config
	clientID string
	tenantID string
}

// NewAzureProvider creates the provider from the auth configuration
func NewAzureProvider(cfg *config.AuthConfig) *AzureProvider {
	tenant := cfg.AzureTenantID
	if tenant == "" {
		tenant = "common"
	}
	return &AzureProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.AzureClientID,
			ClientSecret: cfg.AzureClientSecret,
			RedirectURL:  cfg.AzureRedirectURL,
			Endpoint:     microsoft.AzureADEndpoint(tenant),
			Scopes:       []string{"openid", "profile", "email"},
		},
		clientID: cfg.AzureClientID,
		tenantID: cfg.AzureTenantID,
	}
}

// AuthCodeURL returns the login URL carrying state
func (p *AzureProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange redeems the authorization code and reads the identity from the
// id_token. The token comes straight from the token endpoint over TLS, so
// its signature is not checked here; audience, tenant and expiry are.
func (p *AzureProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	raw, ok := token.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, ErrMissingIDToken
	}
	identity, err := p.parseIDToken(raw)
	if err != nil {
		return nil, err
	}
	identity.AccessToken = token.AccessToken
	return identity, nil
}

func (p *AzureProvider) parseIDToken(raw string) (*Identity, error) {
	claims := &azureClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("failed to parse id_token: %w", err)
	}

	validator := jwt.NewValidator(jwt.WithExpirationRequired(), jwt.WithLeeway(clockSkew))
	if err := validator.Validate(claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !slices.Contains(claims.Audience, p.clientID) {
		return nil, fmt.Errorf("%w: unexpected audience", ErrInvalidToken)
	}
	if p.tenantID != "" && claims.TenantID != p.tenantID {
		return nil, fmt.Errorf("%w: unexpected tenant", ErrInvalidToken)
	}

	email := claims.Email
	if email == "" {
		email = claims.PreferredUsername
	}
	if email == "" {
		return nil, fmt.Errorf("%w: no email claim", ErrInvalidToken)
	}

	subject := claims.OID
	if subject == "" {
		subject = claims.Subject
	}
	return &Identity{
		Subject: subject,
		Email:   strings.ToLower(strings.TrimSpace(email)),
		Name:    claims.Name,
	}, nil
}
