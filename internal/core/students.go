package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/importer"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/logging"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/roles"
)

// ErrOutsideClass means a class teacher touched a student of another class.
var ErrOutsideClass = errors.New("forbidden: student belongs to another class")

// canEditClass reports whether the acting user may change students of
// classID. Admins and calls without an actor are unrestricted; anyone else
// is limited to the class they are homeroom teacher of.
func canEditClass(ctx context.Context, classID string) bool {
	a, ok := ActorFromContext(ctx)
	if !ok || a.Roles.Has(roles.Admin) {
		return true
	}
	return roles.IsClassTeacherOf(a.Roles, a.ClassID, classID)
}

// SkippedStudent is a roster row left out because it belongs to a class
// the importer may not edit.
type SkippedStudent struct {
	FullName string `json:"full_name"`
	ClassID  string `json:"class_id"`
}

// RosterImportResult summarises a committed roster import.
type RosterImportResult struct {
	Inserted     int64                       `json:"inserted"`
	OutsideClass []SkippedStudent            `json:"outside_class,omitempty"`
	Report       *importer.RosterParseReport `json:"report"`
}

// ImportRoster parses a roster file and appends every accepted student
// with one bulk insert. Existing students are left as they are. Rows for
// classes the actor may not edit are dropped and listed in the result;
// when nothing is left the import fails with ErrOutsideClass.
func (s *Service) ImportRoster(ctx context.Context, r io.Reader) (*RosterImportResult, error) {
	var result *RosterImportResult
	err := s.limiter.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, ImportTimeout)
		defer cancel()

		text, err := importer.ReadText(r, s.maxBytes)
		if err != nil {
			return err
		}
		now := s.now()
		students, report, err := importer.ParseRoster(text, now)
		if err != nil {
			return err
		}
		var skipped []SkippedStudent
		kept := students[:0]
		for _, st := range students {
			if !canEditClass(ctx, st.ClassID) {
				skipped = append(skipped, SkippedStudent{FullName: st.FullName, ClassID: st.ClassID})
				continue
			}
			st.ID = uuid.New()
			st.CreatedAt = now
			kept = append(kept, st)
		}
		if len(kept) == 0 {
			return ErrOutsideClass
		}

		n, err := s.store.InsertStudents(ctx, kept)
		if err != nil {
			return fmt.Errorf("insert students: %w", err)
		}
		result = &RosterImportResult{Inserted: n, OutsideClass: skipped, Report: report}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.invalidate(entityStudents)
	logging.FromContext(ctx).Info("roster imported",
		slog.Int64("inserted", result.Inserted),
		slog.Int("dropped", len(result.Report.DroppedLines)),
		slog.Int("outside_class", len(result.OutsideClass)),
	)
	detail := fmt.Sprintf("rows=%d dropped=%d outside_class=%d",
		result.Report.DataRows, len(result.Report.DroppedLines), len(result.OutsideClass))
	s.LogAudit(ctx, AuditLogParams{
		Action:       ActionRosterImport,
		Entity:       entityStudents,
		RowsAffected: int(result.Inserted),
		Detail:       detail,
	})
	return result, nil
}

// ListStudents returns the roster ordered by class, then name.
func (s *Service) ListStudents(ctx context.Context, f StudentFilter) ([]model.Student, error) {
	f.ClassID = model.NormalizeClassID(f.ClassID)
	key := f.ClassID + "|" + f.MealGroup + "|" + f.Room
	return cached(s.cache, entityStudents, key, func() ([]model.Student, error) {
		return s.store.ListStudents(ctx, f)
	})
}

// GetStudent returns one student.
func (s *Service) GetStudent(ctx context.Context, id uuid.UUID) (model.Student, error) {
	return s.store.GetStudent(ctx, id)
}

func normalizeStudent(st *model.Student) {
	st.FullName = strings.Join(strings.Fields(st.FullName), " ")
	st.ClassID = model.NormalizeClassID(st.ClassID)
	st.NationalID = strings.TrimSpace(st.NationalID)
	st.Phone = strings.TrimSpace(st.Phone)
	st.Address = strings.TrimSpace(st.Address)
	st.Room = strings.TrimSpace(st.Room)
	st.MealGroup = strings.TrimSpace(st.MealGroup)
	if st.MealGroup == "" {
		st.MealGroup = model.DefaultMealGroup
	}
}

// CreateStudent adds one student to the roster.
func (s *Service) CreateStudent(ctx context.Context, st model.Student) (model.Student, error) {
	normalizeStudent(&st)
	if err := s.validate.StructCtx(ctx, st); err != nil {
		return model.Student{}, err
	}
	if !canEditClass(ctx, st.ClassID) {
		return model.Student{}, ErrOutsideClass
	}
	st.ID = uuid.New()
	st.CreatedAt = s.now()

	if _, err := s.store.InsertStudents(ctx, []model.Student{st}); err != nil {
		return model.Student{}, fmt.Errorf("insert student: %w", err)
	}
	s.cache.invalidate(entityStudents)
	return st, nil
}

// UpdateStudent replaces the editable fields of a student. Stored report
// snapshots are unaffected.
func (s *Service) UpdateStudent(ctx context.Context, id uuid.UUID, st model.Student) (model.Student, error) {
	normalizeStudent(&st)
	if err := s.validate.StructCtx(ctx, st); err != nil {
		return model.Student{}, err
	}
	existing, err := s.store.GetStudent(ctx, id)
	if err != nil {
		return model.Student{}, err
	}
	// moving a student needs rights on both classes
	if !canEditClass(ctx, existing.ClassID) || !canEditClass(ctx, st.ClassID) {
		return model.Student{}, ErrOutsideClass
	}
	st.ID = id
	st.CreatedAt = existing.CreatedAt

	if err := s.store.UpdateStudent(ctx, st); err != nil {
		return model.Student{}, err
	}
	s.cache.invalidate(entityStudents)
	s.LogAudit(ctx, AuditLogParams{Action: ActionStudentEdit, Entity: entityStudents, EntityID: id.String(), RowsAffected: 1})
	return st, nil
}

// DeleteStudent removes a student from the roster.
func (s *Service) DeleteStudent(ctx context.Context, id uuid.UUID) error {
	existing, err := s.store.GetStudent(ctx, id)
	if err != nil {
		return err
	}
	if !canEditClass(ctx, existing.ClassID) {
		return ErrOutsideClass
	}
	if err := s.store.DeleteStudent(ctx, id); err != nil {
		return err
	}
	s.cache.invalidate(entityStudents)
	s.LogAudit(ctx, AuditLogParams{Action: ActionStudentDelete, Entity: entityStudents, EntityID: id.String(), RowsAffected: 1})
	return nil
}
