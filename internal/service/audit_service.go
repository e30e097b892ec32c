package service

import (
	"context"
	"fmt"
	"log/slog"

	"review-central/internal/models"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

// AuditService handles audit logging
type AuditService struct {
	audit AuditStore
}

// NewAuditService creates a new audit service
func NewAuditService(audit AuditStore) *AuditService {
	return &AuditService{audit: audit}
}

// Log creates an audit log entry. Failures are logged and never returned so
// the audited operation is not affected.
func (s *AuditService) Log(ctx context.Context, entry *models.AuditLog) {
	if err := s.audit.Create(ctx, entry); err != nil {
		slog.Error("Failed to write audit log", "action", entry.Action, "resource", entry.Resource, "error", err)
	}
}

// AuditPage is one page of audit entries
type AuditPage struct {
	Logs  []models.AuditLog `json:"logs"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// List returns audit entries newest first. page starts at 1.
func (s *AuditService) List(ctx context.Context, page, limit int) (*AuditPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultAuditPageSize
	}
	if limit > maxAuditPageSize {
		limit = maxAuditPageSize
	}

	logs, err := s.audit.GetAll(ctx, limit, (page-1)*limit)
	logs, err = degrade("get audit logs", logs, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit logs: %w", err)
	}

	total, err := s.audit.Count(ctx)
	if err != nil {
		slog.Warn("Failed to count audit logs", "error", err)
		total = len(logs)
	}

	return &AuditPage{Logs: logs, Total: total, Page: page, Limit: limit}, nil
}
