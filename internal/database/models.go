package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// Row types mirror the tables in schema.sql column for column.

type Student struct {
	ID         pgtype.UUID
	FullName   string
	BirthDate  pgtype.Date
	Gender     pgtype.Text
	ClassID    string
	NationalID pgtype.Text
	Phone      pgtype.Text
	Address    pgtype.Text
	Room       pgtype.Text
	MealGroup  string
	CreatedAt  pgtype.Timestamptz
}

type DutySchedule struct {
	ID          pgtype.UUID
	TeacherName string
	DutyDate    pgtype.Date
	Notes       pgtype.Text
	CreatedBy   pgtype.UUID
	CreatedAt   pgtype.Timestamptz
}

type AttendanceReport struct {
	ID             pgtype.UUID
	Kind           string
	ReportDate     pgtype.Date
	ClassID        pgtype.Text
	TotalCount     int32
	PresentCount   int32
	AbsentCount    int32
	AbsentStudents []byte
	CreatedBy      pgtype.UUID
	CreatedAt      pgtype.Timestamptz
}

type User struct {
	ID           pgtype.UUID
	FullName     string
	Username     pgtype.Text
	Phone        pgtype.Text
	Email        string
	PasswordHash string
	Roles        []string
	ClassID      pgtype.Text
	CreatedAt    pgtype.Timestamptz
}

type PermissionGroup struct {
	ID          pgtype.UUID
	Name        string
	Description pgtype.Text
	Grants      []byte
	CreatedAt   pgtype.Timestamptz
}

type UserPermissionGroup struct {
	UserID  pgtype.UUID
	GroupID pgtype.UUID
}

type AuditLog struct {
	ID           pgtype.UUID
	Action       string
	Severity     string
	Entity       string
	EntityID     pgtype.Text
	ActorID      pgtype.UUID
	ActorName    pgtype.Text
	IpAddress    pgtype.Text
	UserAgent    pgtype.Text
	RowsAffected int32
	Detail       pgtype.Text
	CreatedAt    pgtype.Timestamptz
}
