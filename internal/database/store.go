package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/core"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/roles"
)

// Store implements core.Store over a pgx pool. A Store returned to an
// InTx callback is bound to that transaction.
type Store struct {
	pool *pgxpool.Pool
	q    *Queries
	tx   pgx.Tx
}

var _ core.Store = (*Store)(nil)

// NewStore wraps pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: New(pool)}
}

// InTx begins a transaction, runs fn and commits. Nested calls reuse the
// outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx core.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	if err := fn(&Store{pool: s.pool, q: s.q.WithTx(tx), tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

func pgID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func expectOne(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// Students

func studentRow(st model.Student) Student {
	return Student{
		ID:         pgID(st.ID),
		FullName:   st.FullName,
		BirthDate:  toPgDatePtr(st.BirthDate),
		Gender:     toPgText(st.Gender),
		ClassID:    st.ClassID,
		NationalID: toPgText(st.NationalID),
		Phone:      toPgText(st.Phone),
		Address:    toPgText(st.Address),
		Room:       toPgText(st.Room),
		MealGroup:  st.MealGroup,
		CreatedAt:  toPgTimestamptz(st.CreatedAt),
	}
}

func studentModel(r Student) model.Student {
	return model.Student{
		ID:         uuid.UUID(r.ID.Bytes),
		FullName:   r.FullName,
		BirthDate:  fromPgDatePtr(r.BirthDate),
		Gender:     fromPgText(r.Gender),
		ClassID:    r.ClassID,
		NationalID: fromPgText(r.NationalID),
		Phone:      fromPgText(r.Phone),
		Address:    fromPgText(r.Address),
		Room:       fromPgText(r.Room),
		MealGroup:  r.MealGroup,
		CreatedAt:  r.CreatedAt.Time,
	}
}

func (s *Store) ListStudents(ctx context.Context, f core.StudentFilter) ([]model.Student, error) {
	rows, err := s.q.ListStudents(ctx, ListStudentsParams{ClassID: f.ClassID, MealGroup: f.MealGroup, Room: f.Room})
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	out := make([]model.Student, len(rows))
	for i, r := range rows {
		out[i] = studentModel(r)
	}
	return out, nil
}

func (s *Store) GetStudent(ctx context.Context, id uuid.UUID) (model.Student, error) {
	r, err := s.q.GetStudent(ctx, pgID(id))
	if err != nil {
		return model.Student{}, notFound(err)
	}
	return studentModel(r), nil
}

func (s *Store) InsertStudents(ctx context.Context, students []model.Student) (int64, error) {
	rows := make([]Student, len(students))
	for i, st := range students {
		rows[i] = studentRow(st)
	}
	return s.q.CopyStudents(ctx, rows)
}

func (s *Store) UpdateStudent(ctx context.Context, st model.Student) error {
	return expectOne(s.q.UpdateStudent(ctx, studentRow(st)))
}

func (s *Store) DeleteStudent(ctx context.Context, id uuid.UUID) error {
	return expectOne(s.q.DeleteStudent(ctx, pgID(id)))
}

// Duty

func dutyModel(r DutySchedule) model.DutyEntry {
	return model.DutyEntry{
		ID:          uuid.UUID(r.ID.Bytes),
		TeacherName: r.TeacherName,
		DutyDate:    fromPgDate(r.DutyDate),
		Notes:       fromPgText(r.Notes),
		CreatedBy:   fromPgUUID(r.CreatedBy),
		CreatedAt:   r.CreatedAt.Time,
	}
}

func (s *Store) ListDuty(ctx context.Context, f core.DutyFilter) ([]model.DutyEntry, error) {
	rows, err := s.q.ListDuty(ctx, ListDutyParams{From: toPgDate(f.From), To: toPgDate(f.To), TeacherName: f.TeacherName})
	if err != nil {
		return nil, fmt.Errorf("list duty: %w", err)
	}
	out := make([]model.DutyEntry, len(rows))
	for i, r := range rows {
		out[i] = dutyModel(r)
	}
	return out, nil
}

func (s *Store) CountDutyRange(ctx context.Context, from, to time.Time) (int64, error) {
	return s.q.CountDutyRange(ctx, toPgDate(from), toPgDate(to))
}

func (s *Store) InsertDuty(ctx context.Context, entries []model.DutyEntry) (int64, error) {
	rows := make([]DutySchedule, len(entries))
	for i, e := range entries {
		rows[i] = DutySchedule{
			ID:          pgID(e.ID),
			TeacherName: e.TeacherName,
			DutyDate:    toPgDate(e.DutyDate),
			Notes:       toPgText(e.Notes),
			CreatedBy:   toPgUUID(e.CreatedBy),
			CreatedAt:   toPgTimestamptz(e.CreatedAt),
		}
	}
	return s.q.CopyDuty(ctx, rows)
}

func (s *Store) UpdateDuty(ctx context.Context, e model.DutyEntry) error {
	return expectOne(s.q.UpdateDuty(ctx, DutySchedule{
		ID:          pgID(e.ID),
		TeacherName: e.TeacherName,
		DutyDate:    toPgDate(e.DutyDate),
		Notes:       toPgText(e.Notes),
	}))
}

func (s *Store) DeleteDuty(ctx context.Context, id uuid.UUID) error {
	return expectOne(s.q.DeleteDuty(ctx, pgID(id)))
}

func (s *Store) DeleteDutyRange(ctx context.Context, from, to time.Time) (int64, error) {
	return s.q.DeleteDutyRange(ctx, toPgDate(from), toPgDate(to))
}

// Reports

func reportModel(r AttendanceReport) (model.Report, error) {
	rep := model.Report{
		ID:           uuid.UUID(r.ID.Bytes),
		Kind:         model.ReportKind(r.Kind),
		ReportDate:   fromPgDate(r.ReportDate),
		ClassID:      fromPgText(r.ClassID),
		TotalCount:   int(r.TotalCount),
		PresentCount: int(r.PresentCount),
		AbsentCount:  int(r.AbsentCount),
		CreatedBy:    fromPgUUID(r.CreatedBy),
		CreatedAt:    r.CreatedAt.Time,
	}
	if err := json.Unmarshal(r.AbsentStudents, &rep.AbsentStudents); err != nil {
		return model.Report{}, fmt.Errorf("decode absent students of report %s: %w", rep.ID, err)
	}
	return rep, nil
}

func (s *Store) InsertReport(ctx context.Context, r model.Report) error {
	absent := r.AbsentStudents
	if absent == nil {
		absent = []model.AbsentStudent{}
	}
	data, err := json.Marshal(absent)
	if err != nil {
		return fmt.Errorf("encode absent students: %w", err)
	}
	return s.q.InsertReport(ctx, AttendanceReport{
		ID:             pgID(r.ID),
		Kind:           string(r.Kind),
		ReportDate:     toPgDate(r.ReportDate),
		ClassID:        toPgText(r.ClassID),
		TotalCount:     int32(r.TotalCount),
		PresentCount:   int32(r.PresentCount),
		AbsentCount:    int32(r.AbsentCount),
		AbsentStudents: data,
		CreatedBy:      toPgUUID(r.CreatedBy),
		CreatedAt:      toPgTimestamptz(r.CreatedAt),
	})
}

func (s *Store) GetReport(ctx context.Context, id uuid.UUID) (model.Report, error) {
	r, err := s.q.GetReport(ctx, pgID(id))
	if err != nil {
		return model.Report{}, notFound(err)
	}
	return reportModel(r)
}

func (s *Store) ListReports(ctx context.Context, f core.ReportFilter) ([]model.Report, error) {
	rows, err := s.q.ListReports(ctx, ListReportsParams{
		Kind:    string(f.Kind),
		ClassID: f.ClassID,
		From:    toPgDate(f.From),
		To:      toPgDate(f.To),
		Limit:   int32(f.Limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	out := make([]model.Report, 0, len(rows))
	for _, r := range rows {
		rep, err := reportModel(r)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, nil
}

func (s *Store) DeleteReport(ctx context.Context, id uuid.UUID) error {
	return expectOne(s.q.DeleteReport(ctx, pgID(id)))
}

// Users

func userModel(r User) model.User {
	return model.User{
		ID:           uuid.UUID(r.ID.Bytes),
		FullName:     r.FullName,
		Username:     fromPgText(r.Username),
		Phone:        fromPgText(r.Phone),
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Roles:        roles.ParseSet(r.Roles),
		ClassID:      fromPgText(r.ClassID),
		CreatedAt:    r.CreatedAt.Time,
	}
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.q.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]model.User, len(rows))
	for i, r := range rows {
		out[i] = userModel(r)
	}
	return out, nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (model.User, error) {
	r, err := s.q.GetUser(ctx, pgID(id))
	if err != nil {
		return model.User{}, notFound(err)
	}
	return userModel(r), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	r, err := s.q.GetUserByEmail(ctx, email)
	if err != nil {
		return model.User{}, notFound(err)
	}
	return userModel(r), nil
}

func (s *Store) EmailByLogin(ctx context.Context, login string) (string, error) {
	email, err := s.q.EmailByLogin(ctx, login)
	if err != nil {
		return "", err
	}
	if !email.Valid {
		return "", core.ErrNotFound
	}
	return email.String, nil
}

func (s *Store) InsertUser(ctx context.Context, u model.User) error {
	return s.q.InsertUser(ctx, User{
		ID:           pgID(u.ID),
		FullName:     u.FullName,
		Username:     toPgText(u.Username),
		Phone:        toPgText(u.Phone),
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Roles:        u.Roles.Strings(),
		ClassID:      toPgText(u.ClassID),
		CreatedAt:    toPgTimestamptz(u.CreatedAt),
	})
}

// Permission groups

func (s *Store) ListPermissionGroups(ctx context.Context) ([]model.PermissionGroup, error) {
	rows, err := s.q.ListPermissionGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list permission groups: %w", err)
	}
	out := make([]model.PermissionGroup, 0, len(rows))
	for _, r := range rows {
		g := model.PermissionGroup{
			ID:          uuid.UUID(r.ID.Bytes),
			Name:        r.Name,
			Description: fromPgText(r.Description),
			CreatedAt:   r.CreatedAt.Time,
		}
		if err := json.Unmarshal(r.Grants, &g.Grants); err != nil {
			return nil, fmt.Errorf("decode grants of group %s: %w", g.ID, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *Store) InsertPermissionGroup(ctx context.Context, g model.PermissionGroup) error {
	grants := g.Grants
	if grants == nil {
		grants = map[model.Feature]model.Grant{}
	}
	data, err := json.Marshal(grants)
	if err != nil {
		return fmt.Errorf("encode grants: %w", err)
	}
	return s.q.InsertPermissionGroup(ctx, PermissionGroup{
		ID:          pgID(g.ID),
		Name:        g.Name,
		Description: toPgText(g.Description),
		Grants:      data,
		CreatedAt:   toPgTimestamptz(g.CreatedAt),
	})
}

func (s *Store) ListUserPermissionGroups(ctx context.Context, userID *uuid.UUID) ([]model.UserPermissionGroup, error) {
	rows, err := s.q.ListUserPermissionGroups(ctx, toPgUUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	out := make([]model.UserPermissionGroup, len(rows))
	for i, r := range rows {
		out[i] = model.UserPermissionGroup{UserID: uuid.UUID(r.UserID.Bytes), GroupID: uuid.UUID(r.GroupID.Bytes)}
	}
	return out, nil
}

func (s *Store) DeleteUserPermissionGroups(ctx context.Context, userID uuid.UUID) error {
	return s.q.DeleteUserPermissionGroups(ctx, pgID(userID))
}

func (s *Store) InsertUserPermissionGroups(ctx context.Context, rows []model.UserPermissionGroup) error {
	in := make([]UserPermissionGroup, len(rows))
	for i, r := range rows {
		in[i] = UserPermissionGroup{UserID: pgID(r.UserID), GroupID: pgID(r.GroupID)}
	}
	_, err := s.q.CopyUserPermissionGroups(ctx, in)
	return err
}

// Audit

func (s *Store) InsertAudit(ctx context.Context, e core.AuditEntry) error {
	return s.q.InsertAuditLog(ctx, AuditLog{
		ID:           pgID(e.ID),
		Action:       string(e.Action),
		Severity:     string(e.Severity),
		Entity:       e.Entity,
		EntityID:     toPgText(e.EntityID),
		ActorID:      toPgUUID(e.ActorID),
		ActorName:    toPgText(e.ActorName),
		IpAddress:    toPgText(e.IPAddress),
		UserAgent:    toPgText(e.UserAgent),
		RowsAffected: int32(e.RowsAffected),
		Detail:       toPgText(e.Detail),
		CreatedAt:    toPgTimestamptz(e.CreatedAt),
	})
}

func (s *Store) ListAudit(ctx context.Context, f core.AuditFilter) ([]core.AuditEntry, error) {
	rows, err := s.q.ListAuditLog(ctx, ListAuditLogParams{
		Action: string(f.Action),
		Since:  toPgTimestamptz(f.Since),
		Limit:  int32(f.Limit),
		Offset: int32(f.Offset),
	})
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	out := make([]core.AuditEntry, len(rows))
	for i, r := range rows {
		out[i] = core.AuditEntry{
			ID:           uuid.UUID(r.ID.Bytes),
			Action:       core.AuditAction(r.Action),
			Severity:     core.AuditSeverity(r.Severity),
			Entity:       r.Entity,
			EntityID:     fromPgText(r.EntityID),
			ActorID:      fromPgUUID(r.ActorID),
			ActorName:    fromPgText(r.ActorName),
			IPAddress:    fromPgText(r.IpAddress),
			UserAgent:    fromPgText(r.UserAgent),
			RowsAffected: int(r.RowsAffected),
			Detail:       fromPgText(r.Detail),
			CreatedAt:    r.CreatedAt.Time,
		}
	}
	return out, nil
}

func (s *Store) PurgeAudit(ctx context.Context, before time.Time) (int64, error) {
	return s.q.PurgeAuditLog(ctx, toPgTimestamptz(before))
}
