package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-central/internal/ai"
	"review-central/internal/auth"
	"review-central/internal/config"
	"review-central/internal/handlers"
	"review-central/internal/middleware"
	"review-central/internal/models"
	"review-central/internal/service"
	"review-central/internal/testutil"
)

func newTestRouter(t *testing.T) (http.Handler, *auth.Service) {
	t.Helper()

	cfg := &config.Config{
		JWT:  config.JWTConfig{Expiration: time.Hour},
		Auth: config.AuthConfig{Provider: "stub"},
	}
	users := testutil.NewMemUsers(
		models.User{ID: "emp", Name: "Eve Employee", Email: "eve@example.com", Role: models.RoleEmployee},
		models.User{ID: "lead", Name: "Liam Lead", Email: "liam@example.com", Role: models.RoleTeamLeader},
		models.User{ID: "admin", Name: "Ada Admin", Email: "ada@example.com", Role: models.RoleAdmin},
	)
	cycles := testutil.NewMemCycles(
		models.ReviewCycle{ID: "cycle-1", Name: "Q4", Status: models.CycleStatusActive, ParticipantIDs: []string{"emp"}},
	)
	assignments := testutil.NewMemAssignments()
	reviews := testutil.NewMemReviews()
	questionnaires := testutil.NewMemQuestionnaires()
	flows := ai.NewFlows(nil, 0, nil)

	userSvc := service.NewUserService(users)
	assignmentSvc := service.NewAssignmentService(assignments, users)
	auditSvc := service.NewAuditService(testutil.NewMemAudit())

	tokens := auth.NewService(&cfg.JWT)
	auditMw := middleware.NewAuditMiddleware(auditSvc)

	mux := http.NewServeMux()
	registerRoutes(mux, &routeDeps{
		authMw:         middleware.NewAuthMiddleware(tokens),
		rbacMw:         middleware.NewRBACMiddleware(users),
		auditMw:        auditMw,
		auth:           handlers.NewAuthHandler(cfg, userSvc, tokens, nil, auditMw),
		users:          handlers.NewUserHandler(userSvc),
		questionnaires: handlers.NewQuestionnaireHandler(service.NewQuestionnaireService(questionnaires)),
		cycles:         handlers.NewReviewCycleHandler(service.NewReviewCycleService(cycles), assignmentSvc),
		assignments:    handlers.NewAssignmentHandler(assignmentSvc),
		reviews:        handlers.NewReviewHandler(service.NewReviewService(reviews, assignments, questionnaires, cycles)),
		ai:             handlers.NewAIHandler(flows),
		dashboard:      handlers.NewDashboardHandler(service.NewDashboardService(cycles, users, assignments, reviews, flows)),
		audit:          handlers.NewAuditHandler(auditSvc),
		gatherer:       prometheus.NewRegistry(),
		health: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
	})
	return mux, tokens
}

func tokenFor(t *testing.T, tokens *auth.Service, id string, role models.Role) string {
	t.Helper()
	token, _, err := tokens.GenerateToken(&models.User{ID: id, Role: role})
	require.NoError(t, err)
	return token
}

func TestRouteAccess(t *testing.T) {
	router, tokens := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		role   models.Role
		status int
	}{
		{"providers are public", http.MethodGet, "/api/v1/auth/providers", "", "", http.StatusOK},
		{"me requires a token", http.MethodGet, "/api/v1/me", "", "", http.StatusUnauthorized},
		{"me", http.MethodGet, "/api/v1/me", "emp", models.RoleEmployee, http.StatusOK},
		{"employee cannot list users", http.MethodGet, "/api/v1/admin/users", "emp", models.RoleEmployee, http.StatusForbidden},
		{"team leader cannot list users", http.MethodGet, "/api/v1/admin/users", "lead", models.RoleTeamLeader, http.StatusForbidden},
		{"admin lists users", http.MethodGet, "/api/v1/admin/users", "admin", models.RoleAdmin, http.StatusOK},
		{"employee cannot see the dashboard", http.MethodGet, "/api/v1/team/dashboard?cycleId=cycle-1", "emp", models.RoleEmployee, http.StatusForbidden},
		{"team leader sees the dashboard", http.MethodGet, "/api/v1/team/dashboard?cycleId=cycle-1", "lead", models.RoleTeamLeader, http.StatusOK},
		{"admin sees the dashboard", http.MethodGet, "/api/v1/team/dashboard?cycleId=cycle-1", "admin", models.RoleAdmin, http.StatusOK},
		{"employee lists active cycles", http.MethodGet, "/api/v1/review-cycles/active", "emp", models.RoleEmployee, http.StatusOK},
		{"employee cannot generate questions", http.MethodPost, "/api/v1/ai/review-questions", "emp", models.RoleEmployee, http.StatusForbidden},
		{"admin hits disabled AI", http.MethodPost, "/api/v1/ai/review-questions", "admin", models.RoleAdmin, http.StatusServiceUnavailable},
		{"audit log is admin only", http.MethodGet, "/api/v1/admin/audit-logs", "lead", models.RoleTeamLeader, http.StatusForbidden},
		{"health", http.MethodGet, "/health", "", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *strings.Reader
			if tt.method == http.MethodPost {
				body = strings.NewReader(`{"topicOrSkills":"Go","reviewType":"peer"}`)
			} else {
				body = strings.NewReader("")
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			if tt.user != "" {
				req.Header.Set("Authorization", "Bearer "+tokenFor(t, tokens, tt.user, tt.role))
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestRoleComesFromDirectory(t *testing.T) {
	router, tokens := newTestRouter(t)

	// the token claims admin but the directory says employee
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, tokens, "emp", models.RoleAdmin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
