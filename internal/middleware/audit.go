package middleware

import (
	"context"
	"net/http"
	"strings"

	"review-central/internal/models"
)

// AuditLogger persists audit entries without failing the caller
type AuditLogger interface {
	Log(ctx context.Context, entry *models.AuditLog)
}

// AuditMiddleware records administrative actions
type AuditMiddleware struct {
	audit AuditLogger
}

// NewAuditMiddleware creates a new audit middleware
func NewAuditMiddleware(audit AuditLogger) *AuditMiddleware {
	return &AuditMiddleware{audit: audit}
}

// Log records action on resource after the wrapped handler succeeded.
// Path values named in the route (id, templateId) are appended to the resource.
func (m *AuditMiddleware) Log(action, resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= http.StatusBadRequest {
				return
			}

			target := resource
			for _, key := range []string{"id", "templateId"} {
				if v := r.PathValue(key); v != "" {
					target += "/" + v
				}
			}

			m.LogAction(r, action, target, r.Method+" "+r.URL.Path)
		})
	}
}

// LogAction records an action for the user of the request, if any
func (m *AuditMiddleware) LogAction(r *http.Request, action, resource, details string) {
	var userID *string
	if id, ok := GetUserID(r); ok {
		userID = &id
	}

	m.audit.Log(context.WithoutCancel(r.Context()), &models.AuditLog{
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		Details:   details,
		IPAddress: getIP(r),
		UserAgent: r.UserAgent(),
	})
}

// getIP gets the client IP address from the request
func getIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	return r.RemoteAddr
}
