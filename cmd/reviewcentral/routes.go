package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"review-central/internal/handlers"
	"review-central/internal/middleware"
	"review-central/internal/models"
)

// routeDeps are the handlers and middleware the router is built from
type routeDeps struct {
	authMw  *middleware.AuthMiddleware
	rbacMw  *middleware.RBACMiddleware
	auditMw *middleware.AuditMiddleware

	auth           *handlers.AuthHandler
	users          *handlers.UserHandler
	questionnaires *handlers.QuestionnaireHandler
	cycles         *handlers.ReviewCycleHandler
	assignments    *handlers.AssignmentHandler
	reviews        *handlers.ReviewHandler
	ai             *handlers.AIHandler
	dashboard      *handlers.DashboardHandler
	audit          *handlers.AuditHandler

	gatherer prometheus.Gatherer
	health   http.HandlerFunc
}

func registerRoutes(mux *http.ServeMux, d *routeDeps) {
	signedIn := func(h http.HandlerFunc) http.Handler {
		return d.authMw.Authenticate(h)
	}
	withRole := func(h http.HandlerFunc, roles ...models.Role) http.Handler {
		return d.authMw.Authenticate(d.rbacMw.RequireAnyRole(roles...)(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return withRole(h, models.RoleAdmin)
	}
	// audited admin mutation
	adminAudited := func(action, resource string, h http.HandlerFunc) http.Handler {
		return d.authMw.Authenticate(
			d.rbacMw.RequireRole(models.RoleAdmin)(
				d.auditMw.Log(action, resource)(h),
			),
		)
	}
	leaders := []models.Role{models.RoleTeamLeader, models.RoleAdmin}

	// Auth
	mux.HandleFunc("GET /api/v1/auth/providers", d.auth.Providers)
	mux.HandleFunc("POST /api/v1/auth/stub/login", d.auth.StubLogin)
	mux.HandleFunc("GET /api/v1/auth/azure/login", d.auth.AzureLogin)
	mux.HandleFunc("GET /api/v1/auth/azure/callback", d.auth.AzureCallback)
	mux.Handle("GET /api/v1/me", signedIn(d.auth.Me))

	// Users
	mux.Handle("GET /api/v1/admin/users", admin(d.users.ListUsers))
	mux.Handle("POST /api/v1/admin/users", adminAudited("user.create", "users", d.users.CreateUser))
	mux.Handle("GET /api/v1/admin/users/{id}", admin(d.users.GetUser))
	mux.Handle("PUT /api/v1/admin/users/{id}", adminAudited("user.update", "users", d.users.UpdateUser))
	mux.Handle("DELETE /api/v1/admin/users/{id}", adminAudited("user.delete", "users", d.users.DeleteUser))

	// Questionnaires
	mux.Handle("GET /api/v1/admin/questionnaires", admin(d.questionnaires.ListLatest))
	mux.Handle("POST /api/v1/admin/questionnaires", adminAudited("questionnaire.save", "questionnaires", d.questionnaires.Save))
	mux.Handle("GET /api/v1/admin/questionnaires/{id}", admin(d.questionnaires.Get))
	mux.Handle("GET /api/v1/admin/questionnaires/templates/{templateId}/versions", admin(d.questionnaires.Versions))
	mux.Handle("POST /api/v1/admin/questionnaires/templates/{templateId}/deactivate",
		adminAudited("questionnaire.deactivate", "questionnaire-templates", d.questionnaires.Deactivate))
	mux.Handle("GET /api/v1/questionnaires/active", signedIn(d.questionnaires.ListActive))

	// Review cycles
	mux.Handle("GET /api/v1/admin/review-cycles", admin(d.cycles.List))
	mux.Handle("POST /api/v1/admin/review-cycles", adminAudited("review_cycle.create", "review-cycles", d.cycles.Create))
	mux.Handle("GET /api/v1/admin/review-cycles/{id}", admin(d.cycles.Get))
	mux.Handle("PUT /api/v1/admin/review-cycles/{id}", adminAudited("review_cycle.update", "review-cycles", d.cycles.Update))
	mux.Handle("DELETE /api/v1/admin/review-cycles/{id}", adminAudited("review_cycle.delete", "review-cycles", d.cycles.Delete))
	mux.Handle("GET /api/v1/review-cycles/active", signedIn(d.cycles.ListActive))

	// Assignments
	mux.Handle("GET /api/v1/admin/review-cycles/{id}/assignments", admin(d.cycles.Assignments))
	mux.Handle("POST /api/v1/admin/assignments", adminAudited("assignment.create", "assignments", d.assignments.Create))
	mux.Handle("PUT /api/v1/admin/assignments/{id}", adminAudited("assignment.update", "assignments", d.assignments.Update))
	mux.Handle("DELETE /api/v1/admin/assignments/{id}", adminAudited("assignment.delete", "assignments", d.assignments.Delete))
	mux.Handle("GET /api/v1/assignments/mine", signedIn(d.assignments.Mine))

	// Reviews
	mux.Handle("GET /api/v1/reviews/mine", signedIn(d.reviews.Mine))
	mux.Handle("POST /api/v1/reviews/self", signedIn(d.reviews.StartSelf))
	mux.Handle("POST /api/v1/assignments/{id}/review", signedIn(d.reviews.StartPeer))
	mux.Handle("GET /api/v1/reviews/{id}", signedIn(d.reviews.Get))
	mux.Handle("PUT /api/v1/reviews/{id}/draft", signedIn(d.reviews.SaveDraft))
	mux.Handle("POST /api/v1/reviews/{id}/submit", signedIn(d.reviews.Submit))

	// AI
	mux.Handle("POST /api/v1/ai/review-questions", admin(d.ai.GenerateReviewQuestions))
	mux.Handle("POST /api/v1/ai/improvement-areas", withRole(d.ai.IdentifyImprovementAreas, leaders...))
	mux.Handle("POST /api/v1/ai/feedback-summary", withRole(d.ai.SummarizeFeedback, leaders...))

	// Dashboard
	mux.Handle("GET /api/v1/team/dashboard", withRole(d.dashboard.TeamDashboard, leaders...))
	mux.Handle("POST /api/v1/team/dashboard/{cycleId}/members/{userId}/insights", withRole(d.dashboard.MemberInsights, leaders...))

	// Audit
	mux.Handle("GET /api/v1/admin/audit-logs", admin(d.audit.ListAuditLogs))

	// Ops
	mux.HandleFunc("GET /health", d.health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/swagger/", httpSwagger.WrapHandler)
}
