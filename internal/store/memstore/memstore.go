// Package memstore is an in-memory core.Store for tests and local runs
// without PostgreSQL.
//
// Transactions are serialised: InTx snapshots every table, runs the
// callback and restores the snapshot if it fails. Writes made outside a
// transaction while one is running can be lost on rollback, which is
// acceptable for the single-process uses this store has.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/core"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
)

type tables struct {
	students    map[uuid.UUID]model.Student
	duty        map[uuid.UUID]model.DutyEntry
	reports     map[uuid.UUID]model.Report
	users       map[uuid.UUID]model.User
	groups      map[uuid.UUID]model.PermissionGroup
	memberships []model.UserPermissionGroup
	audit       []core.AuditEntry
}

func newTables() tables {
	return tables{
		students: make(map[uuid.UUID]model.Student),
		duty:     make(map[uuid.UUID]model.DutyEntry),
		reports:  make(map[uuid.UUID]model.Report),
		users:    make(map[uuid.UUID]model.User),
		groups:   make(map[uuid.UUID]model.PermissionGroup),
	}
}

func (t tables) clone() tables {
	return tables{
		students:    maps.Clone(t.students),
		duty:        maps.Clone(t.duty),
		reports:     maps.Clone(t.reports),
		users:       maps.Clone(t.users),
		groups:      maps.Clone(t.groups),
		memberships: slices.Clone(t.memberships),
		audit:       slices.Clone(t.audit),
	}
}

// Store keeps every table in maps guarded by one lock.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	t    tables

	failMu   sync.Mutex
	failures map[string]error
}

var _ core.Store = (*Store)(nil) // interface compliance check

// New returns an empty store.
func New() *Store {
	return &Store{t: newTables(), failures: make(map[string]error)}
}

// FailNext makes the next call of the named method return err.
func (s *Store) FailNext(method string, err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failures[method] = err
}

func (s *Store) fail(method string) error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	err := s.failures[method]
	delete(s.failures, method)
	return err
}

// InTx runs fn against the store and restores the previous state if fn
// or the context returns an error.
func (s *Store) InTx(ctx context.Context, fn func(tx core.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.t.clone()
	s.mu.RUnlock()

	err := fn(s)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.mu.Lock()
		s.t = snapshot
		s.mu.Unlock()
	}
	return err
}

func inRange(d, from, to time.Time) bool {
	if !from.IsZero() && d.Before(from) {
		return false
	}
	if !to.IsZero() && d.After(to) {
		return false
	}
	return true
}

// Students

func (s *Store) ListStudents(_ context.Context, f core.StudentFilter) ([]model.Student, error) {
	if err := s.fail("ListStudents"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Student, 0, len(s.t.students))
	for _, st := range s.t.students {
		if f.ClassID != "" && st.ClassID != f.ClassID {
			continue
		}
		if f.MealGroup != "" && st.MealGroup != f.MealGroup {
			continue
		}
		if f.Room != "" && st.Room != f.Room {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ClassID != out[j].ClassID {
			return out[i].ClassID < out[j].ClassID
		}
		return out[i].FullName < out[j].FullName
	})
	return out, nil
}

func (s *Store) GetStudent(_ context.Context, id uuid.UUID) (model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.t.students[id]
	if !ok {
		return model.Student{}, core.ErrNotFound
	}
	return st, nil
}

func (s *Store) InsertStudents(_ context.Context, students []model.Student) (int64, error) {
	if err := s.fail("InsertStudents"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range students {
		s.t.students[st.ID] = st
	}
	return int64(len(students)), nil
}

func (s *Store) UpdateStudent(_ context.Context, st model.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.t.students[st.ID]; !ok {
		return core.ErrNotFound
	}
	s.t.students[st.ID] = st
	return nil
}

func (s *Store) DeleteStudent(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.t.students[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.t.students, id)
	return nil
}

// Duty

func (s *Store) ListDuty(_ context.Context, f core.DutyFilter) ([]model.DutyEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.DutyEntry
	for _, e := range s.t.duty {
		if !inRange(e.DutyDate, f.From, f.To) {
			continue
		}
		if f.TeacherName != "" && !strings.EqualFold(e.TeacherName, f.TeacherName) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DutyDate.Equal(out[j].DutyDate) {
			return out[i].DutyDate.Before(out[j].DutyDate)
		}
		return out[i].TeacherName < out[j].TeacherName
	})
	return out, nil
}

func (s *Store) CountDutyRange(_ context.Context, from, to time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, e := range s.t.duty {
		if inRange(e.DutyDate, from, to) {
			n++
		}
	}
	return n, nil
}

func (s *Store) InsertDuty(_ context.Context, entries []model.DutyEntry) (int64, error) {
	if err := s.fail("InsertDuty"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.t.duty[e.ID] = e
	}
	return int64(len(entries)), nil
}

func (s *Store) UpdateDuty(_ context.Context, e model.DutyEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.t.duty[e.ID]
	if !ok {
		return core.ErrNotFound
	}
	e.CreatedBy = old.CreatedBy
	e.CreatedAt = old.CreatedAt
	s.t.duty[e.ID] = e
	return nil
}

func (s *Store) DeleteDuty(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.t.duty[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.t.duty, id)
	return nil
}

func (s *Store) DeleteDutyRange(_ context.Context, from, to time.Time) (int64, error) {
	if err := s.fail("DeleteDutyRange"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, e := range s.t.duty {
		if inRange(e.DutyDate, from, to) {
			delete(s.t.duty, id)
			n++
		}
	}
	return n, nil
}

// Reports. Absent-student slices are copied on the way in and out so
// callers can never reach stored snapshots.

func copyReport(r model.Report) model.Report {
	r.AbsentStudents = slices.Clone(r.AbsentStudents)
	return r
}

func (s *Store) InsertReport(_ context.Context, r model.Report) error {
	if err := s.fail("InsertReport"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.t.reports[r.ID] = copyReport(r)
	return nil
}

func (s *Store) GetReport(_ context.Context, id uuid.UUID) (model.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.t.reports[id]
	if !ok {
		return model.Report{}, core.ErrNotFound
	}
	return copyReport(r), nil
}

func (s *Store) ListReports(_ context.Context, f core.ReportFilter) ([]model.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Report
	for _, r := range s.t.reports {
		if f.Kind != "" && r.Kind != f.Kind {
			continue
		}
		if f.ClassID != "" && r.ClassID != f.ClassID {
			continue
		}
		if !inRange(r.ReportDate, f.From, f.To) {
			continue
		}
		out = append(out, copyReport(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReportDate.Equal(out[j].ReportDate) {
			return out[i].ReportDate.After(out[j].ReportDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) DeleteReport(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.t.reports[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.t.reports, id)
	return nil
}

// Users

func (s *Store) ListUsers(_ context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.User, 0, len(s.t.users))
	for _, u := range s.t.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.t.users[id]
	if !ok {
		return model.User{}, core.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.t.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, core.ErrNotFound
}

// EmailByLogin mirrors the get_email_by_login SQL function: a username or
// phone number resolves to the account's email.
func (s *Store) EmailByLogin(_ context.Context, login string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.t.users {
		if (u.Username != "" && strings.EqualFold(u.Username, login)) || (u.Phone != "" && u.Phone == login) {
			return u.Email, nil
		}
	}
	return "", core.ErrNotFound
}

func (s *Store) InsertUser(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.t.users[u.ID] = u
	return nil
}

// Permission groups

func (s *Store) ListPermissionGroups(_ context.Context) ([]model.PermissionGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.PermissionGroup, 0, len(s.t.groups))
	for _, g := range s.t.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) InsertPermissionGroup(_ context.Context, g model.PermissionGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.Grants = maps.Clone(g.Grants)
	s.t.groups[g.ID] = g
	return nil
}

func (s *Store) ListUserPermissionGroups(_ context.Context, userID *uuid.UUID) ([]model.UserPermissionGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.UserPermissionGroup
	for _, m := range s.t.memberships {
		if userID == nil || m.UserID == *userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) DeleteUserPermissionGroups(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.t.memberships = slices.DeleteFunc(s.t.memberships, func(m model.UserPermissionGroup) bool {
		return m.UserID == userID
	})
	return nil
}

func (s *Store) InsertUserPermissionGroups(_ context.Context, rows []model.UserPermissionGroup) error {
	if err := s.fail("InsertUserPermissionGroups"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.t.memberships = append(s.t.memberships, rows...)
	return nil
}

// Audit

func (s *Store) InsertAudit(_ context.Context, e core.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.t.audit = append(s.t.audit, e)
	return nil
}

func (s *Store) ListAudit(_ context.Context, f core.AuditFilter) ([]core.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.AuditEntry
	for i := len(s.t.audit) - 1; i >= 0; i-- {
		e := s.t.audit[i]
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if !f.Since.IsZero() && e.CreatedAt.Before(f.Since) {
			continue
		}
		out = append(out, e)
	}
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) PurgeAudit(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.t.audit)
	s.t.audit = slices.DeleteFunc(s.t.audit, func(e core.AuditEntry) bool {
		return e.CreatedAt.Before(before)
	})
	return int64(n - len(s.t.audit)), nil
}
