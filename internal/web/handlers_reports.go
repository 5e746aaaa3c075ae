package web

import (
	"net/http"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/core"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/roles"
	mw "github.com/nguyenhongdanhg/noitruxinman-sub001/internal/web/middleware"
)

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	from, err := dateQuery(r, "from")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	to, err := dateQuery(r, "to")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	reports, err := s.service.ListReports(r.Context(), core.ReportFilter{
		Kind:    model.ReportKind(q.Get("kind")),
		ClassID: model.NormalizeClassID(q.Get("class_id")),
		From:    from,
		To:      to,
		Limit:   limit,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, reports)
}

// canCreateReport applies the capability for the report kind. Meal
// reports from non-admins must be for the reporter's own class.
func canCreateReport(a core.Actor, in core.ReportInput) bool {
	switch in.Kind {
	case model.ReportAttendance:
		return roles.CanTakeAttendance(a.Roles)
	case model.ReportMeal:
		if !roles.CanReportMeals(a.Roles) {
			return false
		}
		return a.Roles.Has(roles.Admin) || roles.IsClassTeacherOf(a.Roles, a.ClassID, model.NormalizeClassID(in.ClassID))
	default:
		// unknown kinds fail validation in the service
		return true
	}
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var in core.ReportInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	if !canCreateReport(actor(r), in) {
		s.fail(w, r, mw.ErrForbidden)
		return
	}
	rep, err := s.service.CreateReport(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, rep)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rep, err := s.service.GetReport(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, rep)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.service.DeleteReport(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMealStats aggregates the meal reports of ?date (default today).
func (s *Server) handleMealStats(w http.ResponseWriter, r *http.Request) {
	date, err := dateQuery(r, "date")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if date.IsZero() {
		date = s.now()
	}
	stats, err := s.service.MealStats(r.Context(), date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, stats)
}
