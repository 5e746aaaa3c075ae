package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
)

// ErrNotFound is returned by stores when a lookup by id matches no row.
var ErrNotFound = errors.New("record not found")

// StudentFilter narrows ListStudents. Zero fields do not filter.
type StudentFilter struct {
	ClassID   string
	MealGroup string
	Room      string
}

// DutyFilter narrows ListDuty to an inclusive date range.
// A zero From or To leaves that side open.
type DutyFilter struct {
	From        time.Time
	To          time.Time
	TeacherName string
}

// ReportFilter narrows ListReports. Results are newest first.
type ReportFilter struct {
	Kind    model.ReportKind
	ClassID string
	From    time.Time
	To      time.Time
	Limit   int
}

// AuditFilter narrows ListAudit. Results are newest first.
type AuditFilter struct {
	Action AuditAction
	Since  time.Time
	Limit  int
	Offset int
}

type StudentStore interface {
	ListStudents(ctx context.Context, f StudentFilter) ([]model.Student, error)
	GetStudent(ctx context.Context, id uuid.UUID) (model.Student, error)
	// InsertStudents writes all rows in one bulk call.
	InsertStudents(ctx context.Context, students []model.Student) (int64, error)
	UpdateStudent(ctx context.Context, st model.Student) error
	DeleteStudent(ctx context.Context, id uuid.UUID) error
}

type DutyStore interface {
	ListDuty(ctx context.Context, f DutyFilter) ([]model.DutyEntry, error)
	CountDutyRange(ctx context.Context, from, to time.Time) (int64, error)
	InsertDuty(ctx context.Context, entries []model.DutyEntry) (int64, error)
	UpdateDuty(ctx context.Context, e model.DutyEntry) error
	DeleteDuty(ctx context.Context, id uuid.UUID) error
	// DeleteDutyRange removes every entry with from <= duty_date <= to.
	DeleteDutyRange(ctx context.Context, from, to time.Time) (int64, error)
}

type ReportStore interface {
	InsertReport(ctx context.Context, r model.Report) error
	GetReport(ctx context.Context, id uuid.UUID) (model.Report, error)
	ListReports(ctx context.Context, f ReportFilter) ([]model.Report, error)
	DeleteReport(ctx context.Context, id uuid.UUID) error
}

type UserStore interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	// EmailByLogin resolves a username or phone number to the account email.
	EmailByLogin(ctx context.Context, login string) (string, error)
	InsertUser(ctx context.Context, u model.User) error
}

type PermissionStore interface {
	ListPermissionGroups(ctx context.Context) ([]model.PermissionGroup, error)
	InsertPermissionGroup(ctx context.Context, g model.PermissionGroup) error
	// ListUserPermissionGroups returns all memberships, or only the given
	// user's when userID is non-nil.
	ListUserPermissionGroups(ctx context.Context, userID *uuid.UUID) ([]model.UserPermissionGroup, error)
	DeleteUserPermissionGroups(ctx context.Context, userID uuid.UUID) error
	InsertUserPermissionGroups(ctx context.Context, rows []model.UserPermissionGroup) error
}

type AuditStore interface {
	InsertAudit(ctx context.Context, e AuditEntry) error
	ListAudit(ctx context.Context, f AuditFilter) ([]AuditEntry, error)
	// PurgeAudit deletes entries created before the cutoff.
	PurgeAudit(ctx context.Context, before time.Time) (int64, error)
}

// Store is the complete persistence contract of the service.
type Store interface {
	StudentStore
	DutyStore
	ReportStore
	UserStore
	PermissionStore
	AuditStore

	// InTx runs fn against a Store bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Store) error) error
}
