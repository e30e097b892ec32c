package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"review-central/internal/config"
	"review-central/internal/models"
)

var testUser = &models.User{ID: "user-1", Email: "ada@example.com", Role: models.RoleTeamLeader}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewService(&config.JWTConfig{Expiration: time.Hour})

	token, expiresAt, err := svc.GenerateToken(testUser)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	if time.Until(expiresAt) < 59*time.Minute {
		t.Errorf("unexpected expiry %v", expiresAt)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims.UserID() != "user-1" {
		t.Errorf("Expected subject user-1, got %s", claims.UserID())
	}
	if claims.Role != models.RoleTeamLeader {
		t.Errorf("Expected role team_leader, got %s", claims.Role)
	}
	if claims.Email != "ada@example.com" {
		t.Errorf("Expected email ada@example.com, got %s", claims.Email)
	}
}

func TestValidateTokenRejectsForeignKey(t *testing.T) {
	issuer := NewService(&config.JWTConfig{Expiration: time.Hour})
	verifier := NewService(&config.JWTConfig{Expiration: time.Hour})

	token, _, err := issuer.GenerateToken(testUser)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	if _, err := verifier.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Expected ErrInvalidToken, got %v", err)
	}
	if _, err := verifier.ValidateToken("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestValidateTokenExpired(t *testing.T) {
	svc := NewService(&config.JWTConfig{Expiration: time.Hour})

	claims := Claims{
		Role: models.RoleEmployee,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(svc.privateKey)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("Expected ErrExpiredToken, got %v", err)
	}
}

func TestPEMSecretIsStable(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("Failed to marshal key: %v", err)
	}
	secret := string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}))

	first := NewService(&config.JWTConfig{Secret: secret, Expiration: time.Hour})
	second := NewService(&config.JWTConfig{Secret: secret, Expiration: time.Hour})

	token, _, err := first.GenerateToken(testUser)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	if _, err := second.ValidateToken(token); err != nil {
		t.Fatalf("Token from the same PEM key should validate: %v", err)
	}
}

func idToken(t *testing.T, claims azureClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unused"))
	if err != nil {
		t.Fatalf("Failed to build id_token: %v", err)
	}
	return raw
}

func TestParseIDToken(t *testing.T) {
	p := NewAzureProvider(&config.AuthConfig{AzureClientID: "client", AzureTenantID: "tenant"})
	valid := azureClaims{
		OID:               "oid-1",
		PreferredUsername: "Ada@Example.com",
		Name:              "Ada Lovelace",
		TenantID:          "tenant",
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{"client"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	identity, err := p.parseIDToken(idToken(t, valid))
	if err != nil {
		t.Fatalf("Failed to parse id_token: %v", err)
	}
	if identity.Email != "ada@example.com" || identity.Subject != "oid-1" || identity.Name != "Ada Lovelace" {
		t.Errorf("unexpected identity %+v", identity)
	}

	tests := map[string]func(c *azureClaims){
		"wrong audience": func(c *azureClaims) { c.Audience = jwt.ClaimStrings{"other"} },
		"wrong tenant":   func(c *azureClaims) { c.TenantID = "evil" },
		"expired":        func(c *azureClaims) { c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour)) },
		"no email":       func(c *azureClaims) { c.PreferredUsername = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			if _, err := p.parseIDToken(idToken(t, c)); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("Expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestAuthCodeURLCarriesState(t *testing.T) {
	p := NewAzureProvider(&config.AuthConfig{AzureClientID: "client", AzureTenantID: "tenant", AzureRedirectURL: "http://localhost/cb"})

	u := p.AuthCodeURL("xyz")
	if !strings.HasPrefix(u, "https://login.microsoftonline.com/tenant/oauth2/v2.0/authorize") {
		t.Errorf("unexpected authorize URL %s", u)
	}
	if !strings.Contains(u, "state=xyz") {
		t.Errorf("state missing from %s", u)
	}
}
