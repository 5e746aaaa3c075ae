package core

// duty.go reconciles uploaded duty schedules with stored entries.
//
// An import replaces, per month present in the file, every stored entry
// of that month with the parsed set. Months absent from the file are
// never touched, and a file that yields no records deletes nothing.

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/importer"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/logging"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
)

// DutyImportResult summarises a committed duty import.
type DutyImportResult struct {
	Months   []string                  `json:"months"`
	Deleted  int64                     `json:"deleted"`
	Inserted int64                     `json:"inserted"`
	Report   *importer.DutyParseReport `json:"report"`
}

// DutyImportPreview is a dry run of a duty import.
type DutyImportPreview struct {
	Months      []string                  `json:"months"`
	Records     []importer.DutyRecord     `json:"records"`
	WouldDelete int64                     `json:"would_delete"`
	Report      *importer.DutyParseReport `json:"report"`
}

// ImportDutySchedule parses a duty grid for the selected month and
// replaces the stored entries of each month it covers, in one transaction.
func (s *Service) ImportDutySchedule(ctx context.Context, month importer.Month, r io.Reader) (*DutyImportResult, error) {
	var result *DutyImportResult
	err := s.limiter.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, ImportTimeout)
		defer cancel()

		text, err := importer.ReadText(r, s.maxBytes)
		if err != nil {
			return err
		}
		records, report, err := importer.ParseDutySchedule(month, text)
		if err != nil {
			return err
		}

		months, groups := importer.GroupByMonth(records)
		result = &DutyImportResult{Report: report}
		createdBy := actorID(ctx)
		now := s.now()

		err = s.store.InTx(ctx, func(tx Store) error {
			for _, m := range months {
				deleted, err := tx.DeleteDutyRange(ctx, m.First(), m.Last())
				if err != nil {
					return fmt.Errorf("delete duty %s: %w", m, err)
				}
				inserted, err := tx.InsertDuty(ctx, dutyEntries(groups[m], createdBy, now))
				if err != nil {
					return fmt.Errorf("insert duty %s: %w", m, err)
				}
				result.Deleted += deleted
				result.Inserted += inserted
				result.Months = append(result.Months, m.String())
			}
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.invalidate(entityDuty)
	logging.FromContext(ctx).Info("duty schedule imported",
		slog.String("month", month.String()),
		slog.Int64("deleted", result.Deleted),
		slog.Int64("inserted", result.Inserted),
		slog.Int("skipped_cells", len(result.Report.SkippedCells)),
	)
	s.LogAudit(ctx, AuditLogParams{
		Action:       ActionDutyImport,
		Entity:       entityDuty,
		EntityID:     strings.Join(result.Months, ","),
		RowsAffected: int(result.Inserted),
		Detail:       fmt.Sprintf("deleted=%d inserted=%d", result.Deleted, result.Inserted),
	})
	return result, nil
}

// PreviewDutyImport parses a duty grid and reports what an import would
// replace without writing anything.
func (s *Service) PreviewDutyImport(ctx context.Context, month importer.Month, r io.Reader) (*DutyImportPreview, error) {
	text, err := importer.ReadText(r, s.maxBytes)
	if err != nil {
		return nil, err
	}
	records, report, err := importer.ParseDutySchedule(month, text)
	if err != nil {
		return nil, err
	}

	months, _ := importer.GroupByMonth(records)
	preview := &DutyImportPreview{Records: records, Report: report}
	for _, m := range months {
		n, err := s.store.CountDutyRange(ctx, m.First(), m.Last())
		if err != nil {
			return nil, fmt.Errorf("count duty %s: %w", m, err)
		}
		preview.WouldDelete += n
		preview.Months = append(preview.Months, m.String())
	}
	return preview, nil
}

func dutyEntries(records []importer.DutyRecord, createdBy *uuid.UUID, now time.Time) []model.DutyEntry {
	out := make([]model.DutyEntry, len(records))
	for i, r := range records {
		out[i] = model.DutyEntry{
			ID:          uuid.New(),
			TeacherName: r.TeacherName,
			DutyDate:    r.DutyDate,
			CreatedBy:   createdBy,
			CreatedAt:   now,
		}
	}
	return out
}

// ListDuty returns duty entries ordered by date, then teacher.
func (s *Service) ListDuty(ctx context.Context, f DutyFilter) ([]model.DutyEntry, error) {
	key := fmt.Sprintf("%s|%s|%s", f.From.Format(model.DateLayout), f.To.Format(model.DateLayout), f.TeacherName)
	return cached(s.cache, entityDuty, key, func() ([]model.DutyEntry, error) {
		return s.store.ListDuty(ctx, f)
	})
}

// DutyInput is the editable part of a duty entry.
type DutyInput struct {
	TeacherName string `json:"teacher_name" validate:"required,max=200"`
	DutyDate    string `json:"duty_date" validate:"required,datetime=2006-01-02"`
	Notes       string `json:"notes" validate:"max=500"`
}

func (in DutyInput) date() time.Time {
	t, _ := time.Parse(model.DateLayout, in.DutyDate)
	return t
}

// CreateDuty adds a single duty entry.
func (s *Service) CreateDuty(ctx context.Context, in DutyInput) (model.DutyEntry, error) {
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return model.DutyEntry{}, err
	}
	e := model.DutyEntry{
		ID:          uuid.New(),
		TeacherName: strings.TrimSpace(in.TeacherName),
		DutyDate:    in.date(),
		Notes:       strings.TrimSpace(in.Notes),
		CreatedBy:   actorID(ctx),
		CreatedAt:   s.now(),
	}
	if _, err := s.store.InsertDuty(ctx, []model.DutyEntry{e}); err != nil {
		return model.DutyEntry{}, fmt.Errorf("insert duty: %w", err)
	}
	s.cache.invalidate(entityDuty)
	return e, nil
}

// UpdateDuty edits an existing entry.
func (s *Service) UpdateDuty(ctx context.Context, id uuid.UUID, in DutyInput) (model.DutyEntry, error) {
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return model.DutyEntry{}, err
	}
	e := model.DutyEntry{
		ID:          id,
		TeacherName: strings.TrimSpace(in.TeacherName),
		DutyDate:    in.date(),
		Notes:       strings.TrimSpace(in.Notes),
	}
	if err := s.store.UpdateDuty(ctx, e); err != nil {
		return model.DutyEntry{}, err
	}
	s.cache.invalidate(entityDuty)
	s.LogAudit(ctx, AuditLogParams{Action: ActionDutyEdit, Entity: entityDuty, EntityID: id.String(), RowsAffected: 1})
	return e, nil
}

// DeleteDuty removes one entry.
func (s *Service) DeleteDuty(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteDuty(ctx, id); err != nil {
		return err
	}
	s.cache.invalidate(entityDuty)
	s.LogAudit(ctx, AuditLogParams{Action: ActionDutyDelete, Entity: entityDuty, EntityID: id.String(), RowsAffected: 1})
	return nil
}

// CalendarDay is one cell of the month grid.
type CalendarDay struct {
	Date    string            `json:"date"`
	Day     int               `json:"day"`
	InMonth bool              `json:"in_month"`
	Today   bool              `json:"today"`
	Entries []model.DutyEntry `json:"entries"`
}

// Calendar is a Monday-first month grid of duty entries.
type Calendar struct {
	Month string           `json:"month"`
	Weeks [][7]CalendarDay `json:"weeks"`
}

// DutyCalendar lays out the month's duty entries on a grid of whole weeks.
// Leading and trailing cells belong to the neighbouring months and carry
// no entries.
func (s *Service) DutyCalendar(ctx context.Context, month importer.Month) (*Calendar, error) {
	entries, err := s.ListDuty(ctx, DutyFilter{From: month.First(), To: month.Last()})
	if err != nil {
		return nil, err
	}
	byDate := make(map[string][]model.DutyEntry)
	for _, e := range entries {
		k := e.DutyDate.Format(model.DateLayout)
		byDate[k] = append(byDate[k], e)
	}

	first := month.First()
	// Monday = 0 ... Sunday = 6
	offset := (int(first.Weekday()) + 6) % 7
	start := first.AddDate(0, 0, -offset)
	today := s.today().Format(model.DateLayout)

	cal := &Calendar{Month: month.String()}
	for d := start; !d.After(month.Last()); {
		var week [7]CalendarDay
		for i := range week {
			k := d.Format(model.DateLayout)
			inMonth := d.Month() == month.Month && d.Year() == month.Year
			week[i] = CalendarDay{Date: k, Day: d.Day(), InMonth: inMonth, Today: k == today}
			if inMonth {
				week[i].Entries = byDate[k]
			}
			d = d.AddDate(0, 0, 1)
		}
		cal.Weeks = append(cal.Weeks, week)
	}
	return cal, nil
}

// TeacherNames lists users who can be put on duty, for the import template.
func (s *Service) TeacherNames(ctx context.Context) ([]string, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, u := range users {
		if u.Roles.HasAny(rolesOnDuty...) && u.FullName != "" {
			names = append(names, u.FullName)
		}
	}
	return names, nil
}
