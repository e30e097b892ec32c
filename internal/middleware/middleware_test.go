package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-central/internal/auth"
	"review-central/internal/config"
	"review-central/internal/models"
	"review-central/internal/repository"
)

type fakeTokens struct{}

func (fakeTokens) ValidateToken(token string) (*auth.Claims, error) {
	if token != "good" {
		return nil, auth.ErrInvalidToken
	}
	c := &auth.Claims{Email: "ada@example.com", Role: models.RoleEmployee}
	c.Subject = "user-1"
	return c, nil
}

type fakeUsers map[string]*models.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if id == "broken" {
		return nil, errors.New("connection refused")
	}
	u, ok := f[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

type fakeAudit struct {
	entries []*models.AuditLog
}

func (f *fakeAudit) Log(_ context.Context, entry *models.AuditLog) {
	f.entries = append(f.entries, entry)
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func withUser(r *http.Request, id string) *http.Request {
	return r.WithContext(WithUser(r.Context(), id, "", models.RoleEmployee))
}

func TestAuthenticate(t *testing.T) {
	var seen string
	h := NewAuthMiddleware(fakeTokens{}).Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserID(r)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer good", http.StatusOK},
		{"lower-case scheme", "bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "user-1", seen)
			} else {
				assert.Empty(t, seen)
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestRequireAnyRoleReadsDirectory(t *testing.T) {
	users := fakeUsers{
		"lead":  {ID: "lead", Role: models.RoleTeamLeader},
		"staff": {ID: "staff", Role: models.RoleEmployee},
	}
	var role models.Role
	h := NewRBACMiddleware(users).RequireAnyRole(models.RoleTeamLeader, models.RoleAdmin)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ = GetUserRole(r)
		}),
	)

	tests := []struct {
		user   string
		status int
	}{
		{"lead", http.StatusOK},
		{"staff", http.StatusForbidden},
		{"ghost", http.StatusForbidden},
		{"broken", http.StatusInternalServerError},
		{"", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/team/dashboard", nil)
			if tt.user != "" {
				req = withUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
	assert.Equal(t, models.RoleTeamLeader, role, "role in context comes from the directory, not the token")
}

func TestAuditLogRecordsSuccessfulActions(t *testing.T) {
	audit := &fakeAudit{}
	mw := NewAuditMiddleware(audit)

	mux := http.NewServeMux()
	mux.Handle("DELETE /api/v1/admin/users/{id}", mw.Log("user.delete", "users")(http.HandlerFunc(okHandler)))
	mux.Handle("POST /api/v1/admin/fail", mw.Log("fail", "things")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})))

	req := withUser(httptest.NewRequest(http.MethodDelete, "/api/v1/admin/users/u-42", nil), "admin-1")
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	mux.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.Equal(t, "user.delete", entry.Action)
	assert.Equal(t, "users/u-42", entry.Resource)
	assert.Equal(t, "10.0.0.1", entry.IPAddress)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "admin-1", *entry.UserID)

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/admin/fail", nil))
	assert.Len(t, audit.entries, 1, "failed requests are not audited")
}

func TestCORSPreflight(t *testing.T) {
	cfg := &config.CORSConfig{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	called := false
	h := NewCORSMiddleware(cfg).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/me", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "300", rec.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.True(t, called)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, &config.RateLimitConfig{Enabled: true, Requests: 2, Duration: time.Minute})
	h := rl.Limit(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, http.StatusTooManyRequests}, codes)

	now := time.Now()
	assert.True(t, rl.allow("192.0.2.9", now))
	assert.True(t, rl.allow("192.0.2.9", now))
	assert.False(t, rl.allow("192.0.2.9", now))
	assert.True(t, rl.allow("192.0.2.9", now.Add(time.Minute)), "a new window refills the bucket")
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "'unsafe-inline'")
}

func TestHTTPMetricsUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/reviews/{id}", okHandler)
	h := metrics.Handler(mux)

	for _, id := range []string{"a", "b"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/reviews/"+id, nil))
	}
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.requests.WithLabelValues("GET /api/v1/reviews/{id}", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("unmatched", "GET", "404")))
}
