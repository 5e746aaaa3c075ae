package web

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/importer"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// decodeJSON reads a single JSON object into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return badRequest("nội dung JSON (%v)", err)
	}
	if dec.More() {
		return badRequest("nội dung JSON chỉ được chứa một đối tượng")
	}
	return nil
}

// idParam parses the {id} URL parameter.
func idParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, badRequest("mã %q", raw)
	}
	return id, nil
}

// dateQuery parses an optional YYYY-MM-DD query parameter.
func dateQuery(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(model.DateLayout, raw)
	if err != nil {
		return time.Time{}, badRequest("%s phải có dạng YYYY-MM-DD", name)
	}
	return t, nil
}

// intQuery parses an optional non-negative integer query parameter.
func intQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequest("%s phải là số không âm", name)
	}
	return n, nil
}

// monthValue parses a YYYY-MM value, defaulting to the current month.
func (s *Server) monthValue(raw string) (importer.Month, error) {
	if raw == "" {
		return importer.MonthOf(s.now()), nil
	}
	return importer.ParseMonth(raw)
}

// uploadedFile returns the "file" part of a multipart form. The body is
// capped at the configured import limit plus room for the other fields.
func (s *Server) uploadedFile(w http.ResponseWriter, r *http.Request) (multipart.File, error) {
	maxSize := s.cfg.Import.MaxFileSize + 64<<10
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, importer.ErrFileTooLarge
		}
		return nil, badRequest("biểu mẫu tải lên (%v)", err)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, errNoFile
	}
	return file, nil
}

// attachment writes a download response.
func attachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
