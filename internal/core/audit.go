package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/logging"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionDutyImport    AuditAction = "duty_import"
	ActionDutyEdit      AuditAction = "duty_edit"
	ActionDutyDelete    AuditAction = "duty_delete"
	ActionRosterImport  AuditAction = "roster_import"
	ActionStudentEdit   AuditAction = "student_edit"
	ActionStudentDelete AuditAction = "student_delete"
	ActionReportCreate  AuditAction = "report_create"
	ActionReportDelete  AuditAction = "report_delete"
	ActionGroupCreate   AuditAction = "group_create"
	ActionGroupsReplace AuditAction = "user_groups_replace"
	ActionUserCreate    AuditAction = "user_create"
	ActionAuditPurge    AuditAction = "audit_purge"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow      AuditSeverity = "low"
	SeverityMedium   AuditSeverity = "medium"
	SeverityHigh     AuditSeverity = "high"
	SeverityCritical AuditSeverity = "critical"
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID           uuid.UUID     `json:"id"`
	Action       AuditAction   `json:"action"`
	Severity     AuditSeverity `json:"severity"`
	Entity       string        `json:"entity"`
	EntityID     string        `json:"entity_id,omitempty"`
	ActorID      *uuid.UUID    `json:"actor_id,omitempty"`
	ActorName    string        `json:"actor_name,omitempty"`
	IPAddress    string        `json:"ip_address,omitempty"`
	UserAgent    string        `json:"user_agent,omitempty"`
	RowsAffected int           `json:"rows_affected"`
	Detail       string        `json:"detail,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// AuditLogParams contains parameters for creating an audit log entry.
// Actor, IP and user agent are taken from the context.
type AuditLogParams struct {
	Action       AuditAction
	Entity       string
	EntityID     string
	RowsAffected int
	Detail       string
}

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionDutyImport, ActionRosterImport, ActionGroupsReplace:
		return SeverityHigh
	case ActionReportDelete, ActionAuditPurge:
		return SeverityCritical
	case ActionReportCreate, ActionGroupCreate:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// LogAudit records an audit entry. Failures are logged and swallowed: the
// audited change has already been committed by the time this runs.
func (s *Service) LogAudit(ctx context.Context, params AuditLogParams) {
	entry := AuditEntry{
		ID:           uuid.New(),
		Action:       params.Action,
		Severity:     determineSeverity(params.Action),
		Entity:       params.Entity,
		EntityID:     params.EntityID,
		ActorID:      actorID(ctx),
		IPAddress:    GetIPAddressFromContext(ctx),
		UserAgent:    GetUserAgentFromContext(ctx),
		RowsAffected: params.RowsAffected,
		Detail:       params.Detail,
		CreatedAt:    s.now(),
	}
	if a, ok := ActorFromContext(ctx); ok {
		entry.ActorName = a.Name
	}

	if err := s.store.InsertAudit(ctx, entry); err != nil {
		logging.FromContext(ctx).Warn("audit log write failed",
			slog.String("action", string(params.Action)),
			slog.Any("error", err),
		)
	}
}

// AuditLog returns recorded entries, newest first.
func (s *Service) AuditLog(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	if f.Limit <= 0 || f.Limit > MaxAuditPage {
		f.Limit = DefaultAuditPage
	}
	return s.store.ListAudit(ctx, f)
}

const (
	DefaultAuditPage = 100
	MaxAuditPage     = 1000
)
