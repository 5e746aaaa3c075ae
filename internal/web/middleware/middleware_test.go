package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/auth"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/core"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/roles"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		realIP  string
		xff     string
		want    string
	}{
		{"untrusted keeps socket", []string{"10.0.0.0/8"}, "203.0.113.9:5000", "1.2.3.4", "", "203.0.113.9:5000"},
		{"trusted uses X-Real-IP", []string{"10.0.0.0/8"}, "10.1.2.3:5000", "1.2.3.4", "", "1.2.3.4"},
		{"trusted uses first XFF hop", []string{"10.0.0.1"}, "10.0.0.1:5000", "", "5.6.7.8, 10.0.0.1", "5.6.7.8"},
		{"invalid header ignored", []string{"10.0.0.0/8"}, "10.1.2.3:5000", "not-an-ip", "", "10.1.2.3:5000"},
		{"no trusted proxies", nil, "10.1.2.3:5000", "1.2.3.4", "", "10.1.2.3:5000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

type failure struct {
	err    error
	status int
}

func recordFailure(f *failure) ErrorFunc {
	return func(w http.ResponseWriter, r *http.Request, err error, status int) {
		f.err, f.status = err, status
		w.WriteHeader(status)
	}
}

func TestAuthenticateAndRequire(t *testing.T) {
	iss := auth.NewIssuer("0123456789abcdef", time.Hour)
	teacher := model.User{ID: uuid.New(), FullName: "GV", Roles: roles.NewSet(roles.Teacher)}
	admin := model.User{ID: uuid.New(), FullName: "QT", Roles: roles.NewSet(roles.Admin)}
	teacherTok, _, _ := iss.Issue(teacher)
	adminTok, _, _ := iss.Issue(admin)

	var f failure
	var seen core.Actor
	h := Authenticate(iss, recordFailure(&f))(
		Require(roles.CanManageDuty, recordFailure(&f))(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = core.ActorFromContext(r.Context())
			})))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		err    error
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized, ErrUnauthorized},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer junk") }, http.StatusUnauthorized, auth.ErrInvalidToken},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic "+adminTok) }, http.StatusUnauthorized, ErrUnauthorized},
		{"role denied", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+teacherTok) }, http.StatusForbidden, ErrForbidden},
		{"admin via header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+adminTok) }, http.StatusOK, nil},
		{"admin via cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: adminTok}) }, http.StatusOK, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f = failure{}
			seen = core.Actor{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.err != nil && !errors.Is(f.err, tt.err) {
				t.Errorf("error = %v, want %v", f.err, tt.err)
			}
			if tt.err == nil && seen.UserID != admin.ID {
				t.Errorf("actor = %v, want %v", seen.UserID, admin.ID)
			}
		})
	}
}

func TestLogger_RecordsStatus(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("hi"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusTeapot || rec.Body.String() != "hi" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}
