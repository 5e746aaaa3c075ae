package web

import (
	"net/http"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/core"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/exporter"
)

func (s *Server) handleListDuty(w http.ResponseWriter, r *http.Request) {
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
	entries, err := s.service.ListDuty(r.Context(), core.DutyFilter{
		From:        from,
		To:          to,
		TeacherName: r.URL.Query().Get("teacher"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, entries)
}

// handleDutyCalendar returns the Monday-first month grid for ?month=YYYY-MM.
func (s *Server) handleDutyCalendar(w http.ResponseWriter, r *http.Request) {
	month, err := s.monthValue(r.URL.Query().Get("month"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cal, err := s.service.DutyCalendar(r.Context(), month)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, cal)
}

// handleDutyTemplate downloads the import template, pre-filled with the
// names of every teacher.
func (s *Server) handleDutyTemplate(w http.ResponseWriter, r *http.Request) {
	month, err := s.monthValue(r.URL.Query().Get("month"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	names, err := s.service.TeacherNames(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	body, err := exporter.DutyTemplateCSV(month, names)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	attachment(w, "text/csv; charset=utf-8", exporter.DutyTemplateFilename(month), body)
}

// handleImportDuty replaces the duty schedule of every month present in
// the uploaded grid. The form field "month" selects how day columns are
// read.
func (s *Server) handleImportDuty(w http.ResponseWriter, r *http.Request) {
	file, err := s.uploadedFile(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer file.Close()

	month, err := s.monthValue(r.FormValue("month"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.service.ImportDutySchedule(r.Context(), month, file)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, res)
}

// handlePreviewDuty parses the upload and reports what an import would
// replace, without writing.
func (s *Server) handlePreviewDuty(w http.ResponseWriter, r *http.Request) {
	file, err := s.uploadedFile(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer file.Close()

	month, err := s.monthValue(r.FormValue("month"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	preview, err := s.service.PreviewDutyImport(r.Context(), month, file)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, preview)
}

func (s *Server) handleCreateDuty(w http.ResponseWriter, r *http.Request) {
	var in core.DutyInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	e, err := s.service.CreateDuty(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, e)
}

func (s *Server) handleUpdateDuty(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var in core.DutyInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	e, err := s.service.UpdateDuty(r.Context(), id, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, e)
}

func (s *Server) handleDeleteDuty(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.service.DeleteDuty(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
