package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
)

// ErrUnknownStudent means an absence names a student who is not on the
// roster being reported.
var ErrUnknownStudent = errors.New("student not on roster")

// Absence marks one student absent in a new report.
type Absence struct {
	StudentID uuid.UUID `json:"student_id" validate:"required"`
	Reason    string    `json:"reason" validate:"max=300"`
	Permitted bool      `json:"permitted"`
}

// ReportInput creates an attendance or meal report.
type ReportInput struct {
	Kind       model.ReportKind `json:"kind" validate:"required,oneof=attendance meal"`
	ReportDate string           `json:"report_date" validate:"omitempty,datetime=2006-01-02"`
	ClassID    string           `json:"class_id" validate:"required_if=Kind meal,max=20"`
	Absences   []Absence        `json:"absences" validate:"dive"`
}

// CreateReport stores a report for the roster of a class. Attendance may
// cover the whole school with an empty ClassID; meal reports always name
// a class so MealStats can attribute them. Absent students are copied into the
// report as they are now; later roster edits do not change it.
func (s *Service) CreateReport(ctx context.Context, in ReportInput) (model.Report, error) {
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return model.Report{}, err
	}

	date := s.today()
	if in.ReportDate != "" {
		date, _ = time.Parse(model.DateLayout, in.ReportDate)
	}
	classID := model.NormalizeClassID(in.ClassID)

	roster, err := s.store.ListStudents(ctx, StudentFilter{ClassID: classID})
	if err != nil {
		return model.Report{}, fmt.Errorf("load roster: %w", err)
	}
	byID := make(map[uuid.UUID]model.Student, len(roster))
	for _, st := range roster {
		byID[st.ID] = st
	}

	seen := make(map[uuid.UUID]bool, len(in.Absences))
	absent := make([]model.AbsentStudent, 0, len(in.Absences))
	for _, a := range in.Absences {
		if seen[a.StudentID] {
			continue
		}
		seen[a.StudentID] = true
		st, ok := byID[a.StudentID]
		if !ok {
			return model.Report{}, fmt.Errorf("%w: %s", ErrUnknownStudent, a.StudentID)
		}
		absent = append(absent, model.AbsentStudent{
			StudentID: st.ID,
			FullName:  st.FullName,
			ClassID:   st.ClassID,
			Room:      st.Room,
			MealGroup: st.MealGroup,
			Reason:    a.Reason,
			Permitted: a.Permitted,
		})
	}

	rep := model.Report{
		ID:             uuid.New(),
		Kind:           in.Kind,
		ReportDate:     date,
		ClassID:        classID,
		TotalCount:     len(roster),
		AbsentCount:    len(absent),
		PresentCount:   len(roster) - len(absent),
		AbsentStudents: absent,
		CreatedBy:      actorID(ctx),
		CreatedAt:      s.now(),
	}
	if err := s.store.InsertReport(ctx, rep); err != nil {
		return model.Report{}, fmt.Errorf("insert report: %w", err)
	}
	s.cache.invalidate(entityReports)
	s.LogAudit(ctx, AuditLogParams{
		Action:       ActionReportCreate,
		Entity:       entityReports,
		EntityID:     rep.ID.String(),
		RowsAffected: 1,
		Detail:       fmt.Sprintf("%s %s class=%s absent=%d", rep.Kind, date.Format(model.DateLayout), classID, len(absent)),
	})
	return rep, nil
}

// ListReports returns reports newest first.
func (s *Service) ListReports(ctx context.Context, f ReportFilter) ([]model.Report, error) {
	f.ClassID = model.NormalizeClassID(f.ClassID)
	return s.store.ListReports(ctx, f)
}

// GetReport returns one report.
func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (model.Report, error) {
	return s.store.GetReport(ctx, id)
}

// DeleteReport removes a report. Reports are never edited in place.
func (s *Service) DeleteReport(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteReport(ctx, id); err != nil {
		return err
	}
	s.cache.invalidate(entityReports)
	s.LogAudit(ctx, AuditLogParams{Action: ActionReportDelete, Entity: entityReports, EntityID: id.String(), RowsAffected: 1})
	return nil
}

// ClassMealStat is the meal count of one class on one day.
type ClassMealStat struct {
	ClassID   string `json:"class_id"`
	ClassName string `json:"class_name"`
	Total     int    `json:"total"`
	Eating    int    `json:"eating"`
	Absent    int    `json:"absent"`
	Reported  bool   `json:"reported"`
}

// MealStats is the kitchen's view of one day.
type MealStats struct {
	Date            string          `json:"date"`
	Classes         []ClassMealStat `json:"classes"`
	Total           int             `json:"total"`
	Eating          int             `json:"eating"`
	Absent          int             `json:"absent"`
	AbsentByGroup   map[string]int  `json:"absent_by_meal_group"`
	UnreportedCount int             `json:"unreported_classes"`
}

// MealStats aggregates the meal reports of a day per class. When a class
// reported more than once, its latest report counts. Classes with
// students but no report are listed with Reported=false and counted as
// eating in full.
func (s *Service) MealStats(ctx context.Context, date time.Time) (*MealStats, error) {
	date = dateOnly(date)
	reports, err := s.store.ListReports(ctx, ReportFilter{Kind: model.ReportMeal, From: date, To: date})
	if err != nil {
		return nil, fmt.Errorf("list meal reports: %w", err)
	}
	students, err := s.store.ListStudents(ctx, StudentFilter{})
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}

	// reports are newest first; keep the first per class
	latest := make(map[string]model.Report)
	for _, r := range reports {
		if _, ok := latest[r.ClassID]; !ok {
			latest[r.ClassID] = r
		}
	}

	rosterSize := make(map[string]int)
	for _, st := range students {
		rosterSize[st.ClassID]++
	}

	stats := &MealStats{Date: date.Format(model.DateLayout), AbsentByGroup: make(map[string]int)}
	classIDs := make([]string, 0, len(rosterSize))
	for id := range rosterSize {
		classIDs = append(classIDs, id)
	}
	sort.Strings(classIDs)

	for _, id := range classIDs {
		cs := ClassMealStat{ClassID: id, ClassName: model.ClassName(id), Total: rosterSize[id]}
		if r, ok := latest[id]; ok {
			cs.Reported = true
			cs.Total = r.TotalCount
			cs.Absent = r.AbsentCount
			for _, a := range r.AbsentStudents {
				stats.AbsentByGroup[a.MealGroup]++
			}
		} else {
			stats.UnreportedCount++
		}
		cs.Eating = cs.Total - cs.Absent
		stats.Classes = append(stats.Classes, cs)
		stats.Total += cs.Total
		stats.Eating += cs.Eating
		stats.Absent += cs.Absent
	}
	return stats, nil
}
