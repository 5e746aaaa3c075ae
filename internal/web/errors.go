package web

// errors.go renders every failure the same way: the technical error is
// logged with the request id, and the client gets the mapped Vietnamese
// message (core.MapError) as JSON, an HTMX alert fragment or plain text.
//
// Codes added here on top of core's:
//
//	REQ001 - Malformed request (bad JSON, query parameter or form)
//	REQ002 - Request body too large

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/auth"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/core"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/importer"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/logging"
	mw "github.com/nguyenhongdanhg/noitruxinman-sub001/internal/web/middleware"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/web/templates"
)

var (
	errBadRequest = errors.New("bad request")
	errNoFile     = errors.New("no file provided")
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// badRequest wraps a client mistake with its user-facing message.
func badRequest(format string, args ...any) error {
	technical := fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
	return &core.UserError{
		Technical: technical,
		User: core.UserMessage{
			Message: "Yêu cầu không hợp lệ",
			Action:  "Kiểm tra lại: " + fmt.Sprintf(format, args...),
			Code:    "REQ001",
		},
	}
}

// statusFor picks the HTTP status of an error.
func statusFor(err error) int {
	var verrs validator.ValidationErrors
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr), errors.Is(err, importer.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, mw.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, mw.ErrForbidden), errors.Is(err, core.ErrOutsideClass):
		return http.StatusForbidden
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &verrs),
		errors.Is(err, errBadRequest),
		errors.Is(err, errNoFile),
		errors.Is(err, importer.ErrHeaderNotFound),
		errors.Is(err, importer.ErrNameColumnNotFound),
		errors.Is(err, importer.ErrNoDutyRecords),
		errors.Is(err, importer.ErrNoStudents),
		errors.Is(err, importer.ErrInvalidMonth),
		errors.Is(err, importer.ErrEmptyFile),
		errors.Is(err, core.ErrUnknownStudent),
		errors.Is(err, core.ErrUnknownFeature),
		errors.Is(err, core.ErrUnknownGroup),
		errors.Is(err, core.ErrNoRoles),
		errors.Is(err, core.ErrMissingField):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail responds with the status derived from err.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.respondError(w, r, err, statusFor(err))
}

// respondError logs err and writes the user-facing message in the format
// the client asked for.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)
	if errors.As(err, new(*http.MaxBytesError)) {
		msg = core.UserMessage{Message: "Dữ liệu gửi lên quá lớn", Action: "Giảm kích thước file", Code: "REQ002"}
	}

	log := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", attrs...)
	} else {
		log.Warn("request rejected", attrs...)
	}

	if status == http.StatusServiceUnavailable || status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "60")
	}

	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
			log.Warn("render error alert", "error", err)
		}
	case wantsJSON(r):
		writeJSONStatus(w, status, ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
	default:
		http.Error(w, msg.Message+" ("+msg.Code+")", status)
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON is true for API routes and clients that send or accept JSON.
func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(context.Background()).Warn("json encode failed", "error", err)
	}
}
