// Package model holds the persisted entities shared by the service, the
// storage implementations and the import/export formatters.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/roles"
)

// DefaultMealGroup is assigned to imported students with a blank meal group.
const DefaultMealGroup = "ban_tru"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Student is a boarding student on the roster.
type Student struct {
	ID         uuid.UUID  `json:"id"`
	FullName   string     `json:"full_name" validate:"required,max=200"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	Gender     string     `json:"gender,omitempty" validate:"omitempty,oneof=male female"`
	ClassID    string     `json:"class_id" validate:"required,max=20"`
	NationalID string     `json:"national_id,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	Address    string     `json:"address,omitempty"`
	Room       string     `json:"room,omitempty"`
	MealGroup  string     `json:"meal_group"`
	CreatedAt  time.Time  `json:"created_at"`
}

// DutyEntry assigns a supervising teacher to a calendar date.
type DutyEntry struct {
	ID          uuid.UUID  `json:"id"`
	TeacherName string     `json:"teacher_name" validate:"required,max=200"`
	DutyDate    time.Time  `json:"duty_date"`
	Notes       string     `json:"notes,omitempty"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ReportKind distinguishes attendance reports from meal reports.
type ReportKind string

const (
	ReportAttendance ReportKind = "attendance"
	ReportMeal       ReportKind = "meal"
)

// AbsentStudent is a point-in-time copy of a student taken when a report
// is created. It never references the live roster row.
type AbsentStudent struct {
	StudentID uuid.UUID `json:"student_id"`
	FullName  string    `json:"full_name"`
	ClassID   string    `json:"class_id"`
	Room      string    `json:"room,omitempty"`
	MealGroup string    `json:"meal_group,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Permitted bool      `json:"permitted"`
}

// Report is an immutable daily aggregate.
type Report struct {
	ID             uuid.UUID       `json:"id"`
	Kind           ReportKind      `json:"kind"`
	ReportDate     time.Time       `json:"report_date"`
	ClassID        string          `json:"class_id,omitempty"`
	TotalCount     int             `json:"total_count"`
	PresentCount   int             `json:"present_count"`
	AbsentCount    int             `json:"absent_count"`
	AbsentStudents []AbsentStudent `json:"absent_students"`
	CreatedBy      *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// User is an account that can sign in.
type User struct {
	ID           uuid.UUID `json:"id"`
	FullName     string    `json:"full_name"`
	Username     string    `json:"username,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        roles.Set `json:"roles"`
	ClassID      string    `json:"class_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginIdentifier returns the identifier shown in exports: username,
// else phone, else email.
func (u User) LoginIdentifier() string {
	switch {
	case u.Username != "":
		return u.Username
	case u.Phone != "":
		return u.Phone
	default:
		return u.Email
	}
}

// PermissionGroup is a named bundle of per-feature grants.
type PermissionGroup struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name" validate:"required,max=100"`
	Description string            `json:"description,omitempty"`
	Grants      map[Feature]Grant `json:"grants"`
	CreatedAt   time.Time         `json:"created_at"`
}

// UserPermissionGroup is one membership row.
type UserPermissionGroup struct {
	UserID  uuid.UUID `json:"user_id"`
	GroupID uuid.UUID `json:"group_id"`
}
